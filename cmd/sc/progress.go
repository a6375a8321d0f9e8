package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

func progressCmd() *cobra.Command {
	p := &cobra.Command{Use: "progress", Short: "Record and review program progress"}
	p.AddCommand(progressAddCmd())
	p.AddCommand(progressListCmd())
	p.AddCommand(progressTimelineCmd())
	return p
}

func progressAddCmd() *cobra.Command {
	var in engine.ProgressInput
	var metricsJSON string
	var decisions []string
	cmd := &cobra.Command{
		Use:   "add <program-id>",
		Short: "Append a versioned progress update to a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "program")
			if err != nil {
				return err
			}
			in.ProgramID = id
			in.ActorID = viper.GetString("actor-id")
			if strings.TrimSpace(metricsJSON) != "" {
				if err := json.Unmarshal([]byte(metricsJSON), &in.Metrics); err != nil {
					return fmt.Errorf("--metrics: %w", err)
				}
			}
			for _, title := range decisions {
				in.Metrics.Decisions = append(in.Metrics.Decisions, domain.DecisionEvent{
					Title:     title,
					DecidedBy: in.Author,
				})
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.AddProgressUpdate(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(u)
				}
				fmt.Fprintf(stdout, "Recorded v%d for program #%d: %s %s\n", u.Version, u.ProgramID, ragLabel(u.RAGStatus), percent(u.PercentComplete))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.UpdateText, "text", "", "update narrative")
	cmd.Flags().Float64Var(&in.PercentComplete, "percent", 0, "percent complete (0-100)")
	cmd.Flags().StringVar(&in.RAGStatus, "rag", "", "Red, Amber, Green, Not_Started or Complete")
	cmd.Flags().StringVar(&in.Author, "author", "", "author (defaults to --actor-id)")
	cmd.Flags().StringVar(&metricsJSON, "metrics", "", "metrics JSON object")
	cmd.Flags().StringArrayVar(&decisions, "decision", nil, "decision taken with this update (repeatable)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func progressListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <program-id>",
		Short: "List a program's progress updates, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "program")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.ProgressHistory(ctx, id, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(h)
				}
				fmt.Fprintf(stdout, "#%d %s\n", h.Program.ID, h.Program.Name)
				tw := newTable("Version", "RAG", "Complete", "Author", "Created", "Update")
				for _, u := range h.Updates {
					tw.AppendRow([]any{u.Version, ragLabel(u.RAGStatus), percent(u.PercentComplete), u.Author, u.CreatedAt, u.UpdateText})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max updates (0 = all)")
	return cmd
}

func progressTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <program-id>",
		Short: "Show progress updates and decisions in date order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "program")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.Timeline(ctx, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				for _, entry := range entries {
					fmt.Fprintln(stdout, timelineLine(entry))
				}
				return nil
			})
		},
	}
}

func timelineLine(entry engine.TimelineEntry) string {
	switch {
	case entry.Progress != nil:
		p := entry.Progress
		return fmt.Sprintf("%s  v%d  %s %s  %s (%s)", entry.Timestamp, entry.Version, ragLabel(p.RAGStatus), percent(p.PercentComplete), p.UpdateText, p.Author)
	case entry.Decision != nil:
		d := entry.Decision
		line := fmt.Sprintf("%s  v%d  decision: %s", entry.Timestamp, entry.Version, d.Title)
		if d.DecidedBy != "" {
			line += " (" + d.DecidedBy + ")"
		}
		return line
	}
	return entry.Timestamp
}

func objectivesCmd() *cobra.Command {
	var q engine.ObjectiveQuery
	cmd := &cobra.Command{
		Use:   "objectives <program-id>",
		Short: "List a program's quarterly objectives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "program")
			if err != nil {
				return err
			}
			q.ProgramID = id
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Objectives(ctx, q)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("Year", "Quarter", "Objective", "Target", "Status")
				for _, o := range items {
					tw.AppendRow([]any{o.Year, o.Quarter, o.ObjectiveText, strings.TrimSpace(o.TargetValue + " " + o.TargetUnit), o.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&q.Year, "year", 0, "only this year")
	cmd.Flags().StringVar(&q.Quarter, "quarter", "", "only this quarter (Q1-Q4)")
	return cmd
}
