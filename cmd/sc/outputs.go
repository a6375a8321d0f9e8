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

func outputsCmd() *cobra.Command {
	o := &cobra.Command{Use: "outputs", Short: "Record and read skill outputs"}
	o.AddCommand(outputsSubmitCmd())
	o.AddCommand(outputsListCmd())
	o.AddCommand(outputsUpstreamCmd())
	return o
}

func outputsSubmitCmd() *cobra.Command {
	var in engine.SkillOutputInput
	var dataJSON string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a skill output against a goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ActorID = viper.GetString("actor-id")
			if strings.TrimSpace(dataJSON) != "" {
				if err := json.Unmarshal([]byte(dataJSON), &in.OutputData); err != nil {
					return fmt.Errorf("--data: %w", err)
				}
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				out, err := e.SubmitSkillOutput(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Fprintf(stdout, "Recorded output #%d for %q\n", out.ID, out.GoalName)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.SkillID, "skill", 0, "skill id")
	cmd.Flags().StringVar(&in.PersonName, "person", "", "person the skill ran for")
	cmd.Flags().StringVar(&in.GoalName, "goal", "", "exact goal name")
	cmd.Flags().StringVar(&in.OutputSummary, "summary", "", "short summary")
	cmd.Flags().StringVar(&dataJSON, "data", "", "output data JSON object")
	_ = cmd.MarkFlagRequired("skill")
	_ = cmd.MarkFlagRequired("goal")
	_ = cmd.MarkFlagRequired("summary")
	return cmd
}

func outputsListCmd() *cobra.Command {
	var q engine.SkillOutputQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skill outputs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				page, err := e.SkillOutputs(ctx, q)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(page)
				}
				printOutputs(page.Outputs)
				if len(page.Outputs) < page.Total {
					fmt.Fprintf(stdout, "%d of %d shown\n", len(page.Outputs), page.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&q.SkillID, "skill", 0, "only this skill")
	cmd.Flags().StringVar(&q.PersonName, "person", "", "only this person")
	cmd.Flags().StringVar(&q.GoalName, "goal", "", "only this goal")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "max outputs (0 = all)")
	return cmd
}

func outputsUpstreamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upstream <goal-name>",
		Short: "Show completed outputs from goals upstream of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				up, err := e.UpstreamOutputs(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(up)
				}
				fmt.Fprintf(stdout, "#%d %s\n", up.Goal.ID, up.Goal.Name)
				for _, g := range up.UpstreamGoals {
					fmt.Fprintf(stdout, "  <- %s (%s)\n", g.Name, g.Via)
				}
				printOutputs(up.Outputs)
				return nil
			})
		},
	}
}

func printOutputs(outputs []domain.SkillOutput) {
	tw := newTable("ID", "Skill", "Person", "Goal", "Created", "Summary")
	for _, o := range outputs {
		tw.AppendRow([]any{o.ID, o.SkillID, o.PersonName, o.GoalName, o.CreatedAt, o.OutputSummary})
	}
	tw.Render()
}
