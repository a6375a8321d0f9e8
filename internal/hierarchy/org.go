package hierarchy

import (
	"sort"

	"scorecard/internal/domain"
)

// BuildOrgTree keeps Active units, orders them by priority (unset last) then
// name, and assembles the org forest.
func BuildOrgTree(units []domain.OrgUnit) Forest[domain.OrgUnit] {
	active := make([]domain.OrgUnit, 0, len(units))
	for _, u := range units {
		if u.Status == domain.StatusActive {
			active = append(active, u)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if c := comparePriority(active[i].Priority, active[j].Priority); c != 0 {
			return c < 0
		}
		return active[i].Name < active[j].Name
	})
	return Assemble(active)
}

// DescendantIDs returns the ids of the first unit named rootName (pre-order)
// and everything beneath it. An unknown name yields an empty set.
func DescendantIDs(forest Forest[domain.OrgUnit], rootName string) IDSet {
	root := forest.Find(func(u domain.OrgUnit) bool { return u.Name == rootName })
	return collect(root)
}

// SubtreeIDs is DescendantIDs keyed by unit id.
func SubtreeIDs(forest Forest[domain.OrgUnit], rootID int64) IDSet {
	root := forest.Find(func(u domain.OrgUnit) bool { return u.ID == rootID })
	return collect(root)
}

func collect[T Keyed](root *Node[T]) IDSet {
	ids := IDSet{}
	if root == nil {
		return ids
	}
	Forest[T]{root}.Walk(func(n *Node[T], _ int) bool {
		ids.Add(n.Item.Key())
		return true
	})
	return ids
}

// comparePriority orders set priorities ascending and puts unset ones last.
func comparePriority(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
