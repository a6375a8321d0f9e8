package hierarchy

import (
	"sort"

	"scorecard/internal/domain"
)

// BuildGoalTree keeps Active goals owned by a unit in scope, orders them by
// level (Pillar first), priority and name, then assembles. A goal whose
// parent falls outside the scope becomes a root.
func BuildGoalTree(goals []domain.GoalItem, scope IDSet) Forest[domain.GoalItem] {
	kept := make([]domain.GoalItem, 0, len(goals))
	for _, g := range goals {
		if g.Status == domain.StatusActive && scope.Has(g.OrgUnitID) {
			kept = append(kept, g)
		}
	}
	SortGoals(kept)
	return Assemble(kept)
}

// SortGoals orders goals in place by level rank, priority (unset last) and name.
func SortGoals(goals []domain.GoalItem) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.GoalLevel.Rank() != b.GoalLevel.Rank() {
			return a.GoalLevel.Rank() < b.GoalLevel.Rank()
		}
		if c := comparePriority(a.Priority, b.Priority); c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})
}
