package hierarchy

import "scorecard/internal/domain"

// MaxAncestorHops bounds the parent walk so corrupted or cyclic chains terminate.
const MaxAncestorHops = 10

// GoalLookup fetches a goal by id.
type GoalLookup func(id int64) (domain.GoalItem, bool)

// LookupFrom indexes goals for FindPillarAncestor.
func LookupFrom(goals []domain.GoalItem) GoalLookup {
	byID := make(map[int64]domain.GoalItem, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}
	return func(id int64) (domain.GoalItem, bool) {
		g, ok := byID[id]
		return g, ok
	}
}

// FindPillarAncestor follows parent links from goal until it reaches a
// Pillar. It gives up after MaxAncestorHops parents, at a missing record, or
// at a goal with no parent.
func FindPillarAncestor(goal domain.GoalItem, lookup GoalLookup) (domain.GoalItem, bool) {
	parent := goal.ParentID
	for hops := 0; hops < MaxAncestorHops && parent != nil; hops++ {
		p, ok := lookup(*parent)
		if !ok {
			return domain.GoalItem{}, false
		}
		if p.GoalLevel == domain.LevelPillar {
			return p, true
		}
		parent = p.ParentID
	}
	return domain.GoalItem{}, false
}

// AncestorIDs returns the ids on the parent chain of goal, nearest first,
// bounded like FindPillarAncestor.
func AncestorIDs(goal domain.GoalItem, lookup GoalLookup) []int64 {
	var out []int64
	parent := goal.ParentID
	for hops := 0; hops < MaxAncestorHops && parent != nil; hops++ {
		p, ok := lookup(*parent)
		if !ok {
			break
		}
		out = append(out, p.ID)
		parent = p.ParentID
	}
	return out
}
