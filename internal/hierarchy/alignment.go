package hierarchy

import (
	"fmt"

	"scorecard/internal/domain"
)

// ShapedAlignment is an alignment edge with both endpoint names resolved.
type ShapedAlignment struct {
	ChildGoalID       int64                `json:"child_goal_id"`
	ChildGoalName     string               `json:"child_goal_name"`
	ParentGoalID      int64                `json:"parent_goal_id"`
	ParentGoalName    string               `json:"parent_goal_name"`
	AlignmentType     domain.AlignmentType `json:"alignment_type"`
	AlignmentStrength float64              `json:"alignment_strength"`
	Notes             string               `json:"notes,omitempty"`
}

// SelfReferencing reports whether the edge points back at its own goal.
func (a ShapedAlignment) SelfReferencing() bool {
	return a.ChildGoalID == a.ParentGoalID
}

// RelativeAlignments buckets edges from the point of view of one goal.
// SelfReferences repeats any edge that links the goal to itself.
type RelativeAlignments struct {
	Upstream       []ShapedAlignment `json:"upstream"`
	Downstream     []ShapedAlignment `json:"downstream"`
	CrossCutting   []ShapedAlignment `json:"cross_cutting"`
	SelfReferences []ShapedAlignment `json:"self_references,omitempty"`
}

// SelectTouching keeps edges with at least one endpoint in ids.
func SelectTouching(edges []domain.GoalAlignment, ids IDSet) []domain.GoalAlignment {
	out := []domain.GoalAlignment{}
	for _, e := range edges {
		if ids.Has(e.ChildGoalID) || ids.Has(e.ParentGoalID) {
			out = append(out, e)
		}
	}
	return out
}

// ClassifyAlignments resolves endpoint names, falling back to "Goal #<id>".
func ClassifyAlignments(edges []domain.GoalAlignment, names map[int64]string) []ShapedAlignment {
	out := make([]ShapedAlignment, 0, len(edges))
	for _, e := range edges {
		out = append(out, ShapedAlignment{
			ChildGoalID:       e.ChildGoalID,
			ChildGoalName:     goalLabel(names, e.ChildGoalID),
			ParentGoalID:      e.ParentGoalID,
			ParentGoalName:    goalLabel(names, e.ParentGoalID),
			AlignmentType:     e.AlignmentType,
			AlignmentStrength: e.AlignmentStrength,
			Notes:             e.Notes,
		})
	}
	return out
}

// NameIndex maps goal ids to names.
func NameIndex(goals []domain.GoalItem) map[int64]string {
	names := make(map[int64]string, len(goals))
	for _, g := range goals {
		names[g.ID] = g.Name
	}
	return names
}

func goalLabel(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Goal #%d", id)
}

// SplitRelativeTo buckets edges around focal. Cross-cutting edges always go
// to CrossCutting. Otherwise an edge where focal is the child is upstream and
// one where focal is the parent is downstream. Edges not touching focal are
// dropped.
func SplitRelativeTo(focal int64, edges []ShapedAlignment) RelativeAlignments {
	res := RelativeAlignments{
		Upstream:     []ShapedAlignment{},
		Downstream:   []ShapedAlignment{},
		CrossCutting: []ShapedAlignment{},
	}
	for _, e := range edges {
		if e.ChildGoalID != focal && e.ParentGoalID != focal {
			continue
		}
		if e.SelfReferencing() {
			res.SelfReferences = append(res.SelfReferences, e)
		}
		switch {
		case e.AlignmentType == domain.AlignCrossCutting:
			res.CrossCutting = append(res.CrossCutting, e)
		case e.ChildGoalID == focal:
			res.Upstream = append(res.Upstream, e)
		default:
			res.Downstream = append(res.Downstream, e)
		}
	}
	return res
}
