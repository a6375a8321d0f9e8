package hierarchy

import "scorecard/internal/domain"

const (
	UpstreamViaAlignment = "alignment"
	UpstreamViaSibling   = "sibling"
)

// UpstreamGoal is a goal whose outputs feed work on a focal goal.
type UpstreamGoal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Via  string `json:"via" enum:"alignment,sibling"`
}

// UpstreamOf lists the goals upstream of focal: the parent end of each
// primary or secondary alignment where focal is the child, then the goals
// sharing focal's parent. Cross-cutting and self-referencing edges are
// skipped. A root goal has no siblings. Each goal appears once, alignments
// first.
func UpstreamOf(focal domain.GoalItem, edges []ShapedAlignment, goals []domain.GoalItem) []UpstreamGoal {
	out := []UpstreamGoal{}
	seen := NewIDSet(focal.ID)
	for _, e := range SplitRelativeTo(focal.ID, edges).Upstream {
		if e.SelfReferencing() || seen.Has(e.ParentGoalID) {
			continue
		}
		seen.Add(e.ParentGoalID)
		out = append(out, UpstreamGoal{ID: e.ParentGoalID, Name: e.ParentGoalName, Via: UpstreamViaAlignment})
	}
	if focal.ParentID == nil {
		return out
	}
	for _, g := range goals {
		if g.ParentID == nil || *g.ParentID != *focal.ParentID || seen.Has(g.ID) {
			continue
		}
		seen.Add(g.ID)
		out = append(out, UpstreamGoal{ID: g.ID, Name: g.Name, Via: UpstreamViaSibling})
	}
	return out
}

// UpstreamNames returns the goal names in order.
func UpstreamNames(goals []UpstreamGoal) []string {
	names := make([]string, 0, len(goals))
	for _, g := range goals {
		names = append(names, g.Name)
	}
	return names
}
