package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
	"scorecard/internal/hierarchy"
)

var quarters = []domain.Quarter{domain.Q1, domain.Q2, domain.Q3, domain.Q4}

func scorecardCmd() *cobra.Command {
	var opts engine.ScorecardOptions
	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Program scorecard: quarterly objectives and latest status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				card, err := e.Scorecard(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(card)
				}
				renderScorecard(card)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.Year, "year", 0, "objective year (default from config)")
	cmd.Flags().Int64Var(&opts.OrgUnitID, "org", 0, "only programs under this org unit")
	return cmd
}

func renderScorecard(card engine.Scorecard) {
	fmt.Fprintf(stdout, "Scorecard %d\n", card.Year)
	header := []any{"ID", "Program", "Owner", "Org Unit", "Pillar"}
	for _, q := range quarters {
		header = append(header, string(q))
	}
	header = append(header, "RAG", "Complete")
	tw := newTable(header...)
	for _, r := range card.Rows {
		row := table.Row{r.ProgramID, r.ProgramName, r.Owner, r.OrgUnit, r.PillarName}
		for _, q := range quarters {
			row = append(row, objectiveCell(r.Objectives[q]))
		}
		rag, done := "-", "-"
		if r.Progress != nil {
			rag, done = ragLabel(r.Progress.RAGStatus), percent(r.Progress.PercentComplete)
		}
		row = append(row, rag, done)
		tw.AppendRow(row)
	}
	tw.Render()
}

func objectiveCell(o *domain.ProgramObjective) string {
	if o == nil {
		return ""
	}
	text := o.ObjectiveText
	if len([]rune(text)) > 28 {
		text = string([]rune(text)[:27]) + "…"
	}
	if o.TargetValue != "" {
		text += fmt.Sprintf(" (%s %s)", o.TargetValue, o.TargetUnit)
	}
	return text
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Executive RAG rollup by pillar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Summary(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				renderSummary(s)
				return nil
			})
		},
	}
}

func renderSummary(s hierarchy.Summary) {
	fmt.Fprintf(stdout, "Overall: %s\n", ragLabel(s.OverallRAG))
	fmt.Fprintf(stdout, "Green %d  Amber %d  Red %d  Not started %d\n\n", s.Totals.Green, s.Totals.Amber, s.Totals.Red, s.Totals.NotStarted)
	tw := newTable("Pillar", "Status", "Program", "RAG", "Complete")
	for _, p := range s.Pillars {
		for i, prog := range p.Programs {
			pillar, status := "", ""
			if i == 0 {
				pillar, status = p.PillarName, ragLabel(p.OverallRAG)
			}
			tw.AppendRow(table.Row{pillar, status, prog.ProgramName, ragLabel(prog.RAGStatus), percent(prog.PercentComplete)})
		}
		tw.AppendSeparator()
	}
	tw.Render()
	if len(s.Unassigned) > 0 {
		fmt.Fprintf(stdout, "%d active program(s) have no pillar ancestor: %v\n", len(s.Unassigned), s.Unassigned)
	}
}
