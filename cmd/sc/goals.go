package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scorecard/internal/domain"
	"scorecard/internal/engine"
)

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func orgCmd() *cobra.Command {
	org := &cobra.Command{Use: "org", Short: "Browse the organization"}
	org.AddCommand(orgTreeCmd())
	return org
}

func orgTreeCmd() *cobra.Command {
	var opts engine.OrgTreeOptions
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the org hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				forest, err := e.OrgTree(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(forest)
				}
				if len(forest) == 0 {
					fmt.Fprintln(stdout, "No org units. Run 'sc seed' to load the demo organization.")
					return nil
				}
				printTree(stdout, forest, orgLabel)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&opts.RootID, "root", 0, "root org unit id")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "levels to show, 1 = roots only (0 = all)")
	return cmd
}

func goalCmd() *cobra.Command {
	goal := &cobra.Command{Use: "goal", Short: "Browse and update goals"}
	goal.AddCommand(goalTreeCmd())
	goal.AddCommand(goalShowCmd())
	goal.AddCommand(goalOwnedCmd())
	goal.AddCommand(goalStatusCmd())
	return goal
}

func goalTreeCmd() *cobra.Command {
	var orgID int64
	var orgName, level string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show goals owned by an org unit and the units beneath it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == 0 && orgName == "" {
				return fmt.Errorf("--org or --org-name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var view engine.GoalTreeView
				var err error
				if orgName != "" {
					view, err = e.GoalTreeByOrgName(ctx, orgName, level)
				} else {
					view, err = e.GoalTree(ctx, engine.GoalTreeOptions{OrgUnitID: orgID, Level: level})
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(view)
				}
				if view.OrgUnit == nil {
					fmt.Fprintf(stdout, "Org unit %q not found\n", orgName)
					return nil
				}
				fmt.Fprintf(stdout, "%s (%s)\n", view.OrgUnit.Name, view.OrgUnit.OrgLevel)
				printTree(stdout, view.Goals, goalLabel)
				if len(view.Alignments) > 0 {
					fmt.Fprintf(stdout, "\nAlignments (%d):\n", len(view.Alignments))
					for _, a := range view.Alignments {
						fmt.Fprintf(stdout, "  %s -> %s [%s %.2f]\n", a.ChildGoalName, a.ParentGoalName, a.AlignmentType, a.AlignmentStrength)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 0, "org unit id")
	cmd.Flags().StringVar(&orgName, "org-name", "", "org unit name")
	cmd.Flags().StringVar(&level, "level", "", "only goals of this level (Pillar, Category, Goal, Program)")
	return cmd
}

func goalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Show a goal with its context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "goal")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.GoalDetails(ctx, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				printGoalDetails(d)
				return nil
			})
		},
	}
}

func printGoalDetails(d engine.GoalDetails) {
	g := d.Goal
	fmt.Fprintf(stdout, "#%d %s\n", g.ID, g.Name)
	fmt.Fprintf(stdout, "Level:  %s\n", g.GoalLevel)
	fmt.Fprintf(stdout, "Status: %s\n", g.Status)
	if g.Owner != "" {
		fmt.Fprintf(stdout, "Owner:  %s\n", g.Owner)
	}
	if d.OrgUnit != nil {
		fmt.Fprintf(stdout, "Org:    %s (%s)\n", d.OrgUnit.Name, d.OrgUnit.OrgLevel)
	}
	if d.Pillar != nil {
		fmt.Fprintf(stdout, "Pillar: %s\n", d.Pillar.Name)
	}
	if g.Description != "" {
		fmt.Fprintf(stdout, "\n%s\n", g.Description)
	}
	if len(d.Children) > 0 {
		fmt.Fprintln(stdout, "\nChildren:")
		for _, c := range d.Children {
			fmt.Fprintf(stdout, "  #%d [%s] %s\n", c.ID, c.GoalLevel, c.Name)
		}
	}
	sections := []struct {
		title string
		n     int
	}{
		{"Upstream", len(d.Alignments.Upstream)},
		{"Downstream", len(d.Alignments.Downstream)},
		{"Cross-cutting", len(d.Alignments.CrossCutting)},
	}
	for _, s := range sections {
		if s.n > 0 {
			fmt.Fprintf(stdout, "%s alignments: %d\n", s.title, s.n)
		}
	}
	if p := d.LatestProgress; p != nil {
		fmt.Fprintf(stdout, "\nLatest progress v%d: %s %s by %s\n  %s\n", p.Version, ragLabel(p.RAGStatus), percent(p.PercentComplete), p.Author, p.UpdateText)
	}
}

func goalOwnedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owned <owner>",
		Short: "List goals owned by a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				goals, err := e.GoalsForOwner(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(goals)
				}
				tw := newTable("ID", "Level", "Name", "Org Unit", "Status")
				for _, g := range goals {
					tw.AppendRow([]any{g.ID, g.GoalLevel, g.Name, g.OrgUnitName, g.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func goalStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <goal-id> <Active|Inactive|Archived>",
		Short: "Change a goal's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "goal")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				g, err := e.UpdateGoalStatus(ctx, id, args[1], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(g)
				}
				fmt.Fprintf(stdout, "Goal #%d %s is now %s\n", g.ID, g.Name, g.Status)
				return nil
			})
		},
	}
}

func alignmentsCmd() *cobra.Command {
	var q engine.AlignmentQuery
	cmd := &cobra.Command{
		Use:   "alignments",
		Short: "Show the goal alignment map",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Alignments(ctx, q)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("Child", "Parent", "Type", "Strength")
				for _, a := range items {
					tw.AppendRow([]any{a.ChildGoalName, a.ParentGoalName, alignmentLabel(a.AlignmentType), a.AlignmentStrength})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&q.GoalID, "goal", 0, "only alignments touching this goal")
	cmd.Flags().StringVar(&q.Type, "type", "", "alignment type (primary, secondary, cross_cutting)")
	return cmd
}

func alignmentLabel(t domain.AlignmentType) string {
	if t == domain.AlignCrossCutting {
		return "cross-cutting"
	}
	return string(t)
}
