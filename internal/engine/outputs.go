package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"scorecard/internal/domain"
	"scorecard/internal/events"
	"scorecard/internal/hierarchy"
	"scorecard/internal/repo"
)

type SkillOutputInput struct {
	SkillID       int64
	PersonName    string
	GoalName      string
	OutputData    domain.Metrics
	OutputSummary string
	Metadata      map[string]any
	ActorID       string
}

// SubmitSkillOutput records the result of running a skill against a goal.
// The goal is matched by exact name; an unknown name is still accepted and
// stored without a goal_id.
func (e Engine) SubmitSkillOutput(ctx context.Context, in SkillOutputInput) (domain.SkillOutput, error) {
	if in.SkillID <= 0 {
		return domain.SkillOutput{}, invalidf("skill_id must be positive")
	}
	out := domain.SkillOutput{
		SkillID:       in.SkillID,
		PersonName:    strings.TrimSpace(in.PersonName),
		GoalName:      strings.TrimSpace(in.GoalName),
		OutputData:    in.OutputData,
		OutputSummary: strings.TrimSpace(in.OutputSummary),
		Status:        domain.SkillOutputCompleted,
		Metadata:      in.Metadata,
		CreatedAt:     e.stamp(),
	}
	switch {
	case out.PersonName == "":
		return domain.SkillOutput{}, invalidf("person_name is required")
	case out.GoalName == "":
		return domain.SkillOutput{}, invalidf("goal_name is required")
	case out.OutputSummary == "":
		return domain.SkillOutput{}, invalidf("output_summary is required")
	}
	if goal, ok, err := e.goalByName(ctx, out.GoalName); err != nil {
		return domain.SkillOutput{}, err
	} else if ok {
		out.GoalID = &goal.ID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SkillOutput{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.InsertSkillOutput(ctx, tx, out)
	if err != nil {
		return domain.SkillOutput{}, fmt.Errorf("insert skill output: %w", err)
	}
	out.ID = id
	if err := e.Events.Append(ctx, tx, events.SkillOutputAdded, "skill_output", strconv.FormatInt(id, 10), in.ActorID, events.EventPayload{
		"skill_id":    out.SkillID,
		"person_name": out.PersonName,
		"goal_name":   out.GoalName,
	}); err != nil {
		return domain.SkillOutput{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SkillOutput{}, err
	}
	e.log().Info("skill output recorded",
		zap.Int64("output_id", id),
		zap.Int64("skill_id", out.SkillID),
		zap.String("goal_name", out.GoalName),
	)
	return out, nil
}

// goalByName returns the first goal, in list order, with exactly this name.
func (e Engine) goalByName(ctx context.Context, name string) (domain.GoalItem, bool, error) {
	goals, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{Name: name})
	if err != nil {
		return domain.GoalItem{}, false, fmt.Errorf("find goal %q: %w", name, err)
	}
	if len(goals) == 0 {
		return domain.GoalItem{}, false, nil
	}
	return goals[0], true, nil
}

type SkillOutputQuery struct {
	SkillID    int64
	PersonName string
	GoalName   string
	Status     string
	Limit      int
	Offset     int
}

type SkillOutputPage struct {
	Outputs []domain.SkillOutput `json:"outputs"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// SkillOutputs lists outputs newest first. Limit <= 0 returns every match.
func (e Engine) SkillOutputs(ctx context.Context, q SkillOutputQuery) (SkillOutputPage, error) {
	if q.SkillID < 0 {
		return SkillOutputPage{}, invalidf("skill_id must not be negative")
	}
	if q.Offset < 0 {
		return SkillOutputPage{}, invalidf("offset must not be negative")
	}
	f := repo.SkillOutputFilters{
		SkillID:    q.SkillID,
		PersonName: strings.TrimSpace(q.PersonName),
		GoalName:   strings.TrimSpace(q.GoalName),
		Status:     strings.TrimSpace(q.Status),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if f.Limit <= 0 {
		f.Limit, f.Offset = 0, 0
	}
	outputs, err := e.Repo.ListSkillOutputs(ctx, f)
	if err != nil {
		return SkillOutputPage{}, fmt.Errorf("list skill outputs: %w", err)
	}
	total, err := e.Repo.CountSkillOutputs(ctx, f)
	if err != nil {
		return SkillOutputPage{}, fmt.Errorf("count skill outputs: %w", err)
	}
	return SkillOutputPage{Outputs: outputs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

type UpstreamOutputs struct {
	Goal          domain.GoalItem          `json:"goal"`
	UpstreamGoals []hierarchy.UpstreamGoal `json:"upstream_goals"`
	Outputs       []domain.SkillOutput     `json:"outputs"`
}

// UpstreamOutputs gathers completed skill outputs recorded against the goals
// upstream of goalName, oldest first, so a skill working on that goal can
// build on them.
func (e Engine) UpstreamOutputs(ctx context.Context, goalName string) (UpstreamOutputs, error) {
	goalName = strings.TrimSpace(goalName)
	if goalName == "" {
		return UpstreamOutputs{}, invalidf("goal_name is required")
	}
	goal, ok, err := e.goalByName(ctx, goalName)
	if err != nil {
		return UpstreamOutputs{}, err
	}
	if !ok {
		return UpstreamOutputs{}, fmt.Errorf("goal %q: %w", goalName, repo.ErrNotFound)
	}
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return UpstreamOutputs{}, fmt.Errorf("list goals: %w", err)
	}
	edges, err := e.Repo.ListAlignments(ctx, repo.AlignmentFilters{GoalIDs: []int64{goal.ID}})
	if err != nil {
		return UpstreamOutputs{}, fmt.Errorf("list alignments: %w", err)
	}
	upstream := hierarchy.UpstreamOf(goal, hierarchy.ClassifyAlignments(edges, hierarchy.NameIndex(all)), all)
	outputs, err := e.Repo.ListSkillOutputs(ctx, repo.SkillOutputFilters{
		GoalNames:   hierarchy.UpstreamNames(upstream),
		Status:      domain.SkillOutputCompleted,
		OldestFirst: true,
	})
	if err != nil {
		return UpstreamOutputs{}, fmt.Errorf("list upstream outputs: %w", err)
	}
	e.log().Debug("upstream outputs resolved",
		zap.Int64("goal_id", goal.ID),
		zap.Int("upstream_goals", len(upstream)),
		zap.Int("outputs", len(outputs)),
	)
	return UpstreamOutputs{Goal: goal, UpstreamGoals: upstream, Outputs: outputs}, nil
}
