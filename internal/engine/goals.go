package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"scorecard/internal/domain"
	"scorecard/internal/events"
	"scorecard/internal/hierarchy"
	"scorecard/internal/repo"
)

type OrgTreeOptions struct {
	// RootID limits the tree to one unit's subtree when set.
	RootID int64
	// Depth cuts the tree below this many levels when positive.
	Depth int
}

func (e Engine) orgForest(ctx context.Context) (hierarchy.Forest[domain.OrgUnit], error) {
	units, err := e.Repo.ListOrgUnits(ctx, repo.OrgUnitFilters{})
	if err != nil {
		return nil, fmt.Errorf("list org units: %w", err)
	}
	return hierarchy.BuildOrgTree(units), nil
}

// OrgTree returns the active org hierarchy.
func (e Engine) OrgTree(ctx context.Context, opts OrgTreeOptions) (hierarchy.Forest[domain.OrgUnit], error) {
	if opts.Depth < 0 {
		return nil, invalidf("depth must not be negative")
	}
	forest, err := e.orgForest(ctx)
	if err != nil {
		return nil, err
	}
	if opts.RootID != 0 {
		root := forest.Find(func(u domain.OrgUnit) bool { return u.ID == opts.RootID })
		if root == nil {
			return nil, fmt.Errorf("org unit %d: %w", opts.RootID, repo.ErrNotFound)
		}
		forest = hierarchy.Forest[domain.OrgUnit]{root}
	}
	return forest.Prune(opts.Depth), nil
}

type GoalTreeOptions struct {
	OrgUnitID int64
	// Level keeps only goals of one level; they come back as roots.
	Level string
}

type GoalTreeView struct {
	OrgUnit    *domain.OrgUnit                   `json:"org_unit,omitempty"`
	OrgUnitIDs []int64                           `json:"org_unit_ids"`
	Goals      hierarchy.Forest[domain.GoalItem] `json:"goals"`
	Alignments []hierarchy.ShapedAlignment       `json:"alignments"`
}

func emptyGoalTree() GoalTreeView {
	return GoalTreeView{
		OrgUnitIDs: []int64{},
		Goals:      hierarchy.Forest[domain.GoalItem]{},
		Alignments: []hierarchy.ShapedAlignment{},
	}
}

// GoalTree assembles the goals owned by an org unit and everything beneath it,
// along with every alignment touching those goals.
func (e Engine) GoalTree(ctx context.Context, opts GoalTreeOptions) (GoalTreeView, error) {
	level, err := parseOptionalLevel(opts.Level)
	if err != nil {
		return GoalTreeView{}, err
	}
	unit, err := e.Repo.GetOrgUnit(ctx, opts.OrgUnitID)
	if err != nil {
		return GoalTreeView{}, fmt.Errorf("org unit %d: %w", opts.OrgUnitID, err)
	}
	forest, err := e.orgForest(ctx)
	if err != nil {
		return GoalTreeView{}, err
	}
	return e.goalTreeForScope(ctx, &unit, hierarchy.SubtreeIDs(forest, unit.ID), level)
}

// GoalTreeByOrgName is GoalTree keyed by unit name. An unknown name yields an
// empty view rather than an error.
func (e Engine) GoalTreeByOrgName(ctx context.Context, name, level string) (GoalTreeView, error) {
	lvl, err := parseOptionalLevel(level)
	if err != nil {
		return GoalTreeView{}, err
	}
	forest, err := e.orgForest(ctx)
	if err != nil {
		return GoalTreeView{}, err
	}
	var unit *domain.OrgUnit
	if n := forest.Find(func(u domain.OrgUnit) bool { return u.Name == name }); n != nil {
		item := n.Item
		unit = &item
	}
	return e.goalTreeForScope(ctx, unit, hierarchy.DescendantIDs(forest, name), lvl)
}

func (e Engine) goalTreeForScope(ctx context.Context, unit *domain.OrgUnit, scope hierarchy.IDSet, level domain.GoalLevel) (GoalTreeView, error) {
	view := emptyGoalTree()
	view.OrgUnit = unit
	if len(scope) == 0 {
		return view, nil
	}
	view.OrgUnitIDs = scope.Sorted()
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return GoalTreeView{}, fmt.Errorf("list goals: %w", err)
	}
	candidates := all
	if level != "" {
		candidates = make([]domain.GoalItem, 0, len(all))
		for _, g := range all {
			if g.GoalLevel == level {
				candidates = append(candidates, g)
			}
		}
	}
	view.Goals = hierarchy.BuildGoalTree(candidates, scope)
	ids := hierarchy.IDSet{}
	for _, g := range view.Goals.Flatten() {
		ids.Add(g.ID)
	}
	if len(ids) == 0 {
		return view, nil
	}
	edges, err := e.Repo.ListAlignments(ctx, repo.AlignmentFilters{GoalIDs: ids.Sorted()})
	if err != nil {
		return GoalTreeView{}, fmt.Errorf("list alignments: %w", err)
	}
	view.Alignments = hierarchy.ClassifyAlignments(hierarchy.SelectTouching(edges, ids), hierarchy.NameIndex(all))
	return view, nil
}

type GoalDetails struct {
	Goal           domain.GoalItem              `json:"goal"`
	OrgUnit        *domain.OrgUnit              `json:"org_unit,omitempty"`
	Children       []domain.GoalItem            `json:"children"`
	Pillar         *domain.GoalItem             `json:"pillar,omitempty"`
	AncestorIDs    []int64                      `json:"ancestor_ids"`
	Alignments     hierarchy.RelativeAlignments `json:"alignments"`
	LatestProgress *domain.ProgressUpdate       `json:"latest_progress,omitempty"`
}

// GoalDetails gathers one goal with its children, ancestry, alignments split
// relative to it and, for programs, the latest progress update.
func (e Engine) GoalDetails(ctx context.Context, goalID int64) (GoalDetails, error) {
	goal, err := e.Repo.GetGoalItem(ctx, goalID)
	if err != nil {
		return GoalDetails{}, fmt.Errorf("goal %d: %w", goalID, err)
	}
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return GoalDetails{}, fmt.Errorf("list goals: %w", err)
	}
	out := GoalDetails{Goal: goal, Children: []domain.GoalItem{}}
	for _, g := range all {
		if g.ParentID != nil && *g.ParentID == goalID {
			out.Children = append(out.Children, g)
		}
	}
	if unit, err := e.Repo.GetOrgUnit(ctx, goal.OrgUnitID); err == nil {
		out.OrgUnit = &unit
	} else if !errors.Is(err, repo.ErrNotFound) {
		return GoalDetails{}, err
	}
	lookup := hierarchy.LookupFrom(all)
	if pillar, ok := hierarchy.FindPillarAncestor(goal, lookup); ok {
		out.Pillar = &pillar
	}
	out.AncestorIDs = hierarchy.AncestorIDs(goal, lookup)
	if out.AncestorIDs == nil {
		out.AncestorIDs = []int64{}
	}
	edges, err := e.Repo.ListAlignments(ctx, repo.AlignmentFilters{GoalIDs: []int64{goalID}})
	if err != nil {
		return GoalDetails{}, fmt.Errorf("list alignments: %w", err)
	}
	out.Alignments = hierarchy.SplitRelativeTo(goalID, hierarchy.ClassifyAlignments(edges, hierarchy.NameIndex(all)))
	if n := len(out.Alignments.SelfReferences); n > 0 {
		e.log().Warn("goal aligned to itself", zap.Int64("goal_id", goalID), zap.Int("edges", n))
	}
	if goal.GoalLevel == domain.LevelProgram {
		latest, err := e.Repo.LatestProgress(ctx, goalID)
		switch {
		case err == nil:
			out.LatestProgress = &latest
		case !errors.Is(err, repo.ErrNotFound):
			return GoalDetails{}, err
		}
	}
	return out, nil
}

// GoalsForOwner lists goals whose owner matches exactly, in any status.
func (e Engine) GoalsForOwner(ctx context.Context, owner string) ([]domain.GoalItem, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, invalidf("owner is required")
	}
	return e.Repo.ListGoalItems(ctx, repo.GoalFilters{Owner: owner})
}

// UpdateGoalStatus changes a goal's lifecycle status and logs the change.
func (e Engine) UpdateGoalStatus(ctx context.Context, goalID int64, status, actorID string) (domain.GoalItem, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return domain.GoalItem{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.GoalItem{}, err
	}
	defer tx.Rollback()
	goal, err := e.Repo.GetGoalItemTx(ctx, tx, goalID)
	if err != nil {
		return domain.GoalItem{}, fmt.Errorf("goal %d: %w", goalID, err)
	}
	prev := goal.Status
	stamp := e.stamp()
	if err := e.Repo.UpdateGoalStatusTx(ctx, tx, goalID, next, stamp); err != nil {
		return domain.GoalItem{}, err
	}
	if err := e.Events.Append(ctx, tx, events.GoalStatusUpdated, "goal", strconv.FormatInt(goalID, 10), actorID, events.EventPayload{
		"from": prev,
		"to":   next,
	}); err != nil {
		return domain.GoalItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.GoalItem{}, err
	}
	goal.Status = next
	goal.UpdatedAt = stamp
	e.log().Info("goal status updated", zap.Int64("goal_id", goalID), zap.String("from", string(prev)), zap.String("to", string(next)))
	return goal, nil
}

type AlignmentQuery struct {
	GoalID int64
	Type   string
}

// Alignments lists shaped alignments ordered by parent then child name.
func (e Engine) Alignments(ctx context.Context, q AlignmentQuery) ([]hierarchy.ShapedAlignment, error) {
	var f repo.AlignmentFilters
	if q.Type != "" {
		t, err := domain.ParseAlignmentType(q.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		f.Type = t
	}
	if q.GoalID != 0 {
		f.GoalIDs = []int64{q.GoalID}
	}
	edges, err := e.Repo.ListAlignments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list alignments: %w", err)
	}
	all, err := e.Repo.ListGoalItems(ctx, repo.GoalFilters{})
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	shaped := hierarchy.ClassifyAlignments(edges, hierarchy.NameIndex(all))
	sort.SliceStable(shaped, func(i, j int) bool {
		if shaped[i].ParentGoalName != shaped[j].ParentGoalName {
			return shaped[i].ParentGoalName < shaped[j].ParentGoalName
		}
		return shaped[i].ChildGoalName < shaped[j].ChildGoalName
	})
	return shaped, nil
}

func parseOptionalLevel(raw string) (domain.GoalLevel, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	level, err := domain.ParseGoalLevel(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return level, nil
}
