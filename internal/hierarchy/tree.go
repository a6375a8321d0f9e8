// Package hierarchy turns flat parent-referencing records into ordered trees,
// walks goal ancestry, classifies goal alignments and rolls program status up
// to pillar and enterprise level. Everything here is pure and safe for
// concurrent use.
package hierarchy

import (
	"encoding/json"
	"fmt"
)

// Keyed is a record that names itself and, optionally, its parent.
type Keyed interface {
	Key() int64
	ParentKey() (int64, bool)
}

// Node is a record plus its ordered children.
type Node[T Keyed] struct {
	Item     T
	Children []*Node[T]
}

// Forest is an ordered list of root nodes.
type Forest[T Keyed] []*Node[T]

// Assemble links items into a forest in two linear passes. An item is a root
// when it has no parent or its parent is absent from items. Sibling order is
// input order. Items caught in a parent cycle are unreachable from any root
// and do not appear in the result. When ids repeat, the first occurrence is
// the one children attach to.
func Assemble[T Keyed](items []T) Forest[T] {
	nodes := make([]*Node[T], len(items))
	index := make(map[int64]*Node[T], len(items))
	for i, item := range items {
		n := &Node[T]{Item: item, Children: []*Node[T]{}}
		nodes[i] = n
		if _, seen := index[item.Key()]; !seen {
			index[item.Key()] = n
		}
	}
	roots := Forest[T]{}
	for _, n := range nodes {
		parentID, ok := n.Item.ParentKey()
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent, found := index[parentID]
		if !found {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's subtree.
func (f Forest[T]) Walk(fn func(n *Node[T], depth int) bool) {
	for _, root := range f {
		walk(root, 0, fn)
	}
}

func walk[T Keyed](n *Node[T], depth int, fn func(*Node[T], int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the first node in pre-order that satisfies match.
func (f Forest[T]) Find(match func(T) bool) *Node[T] {
	var found *Node[T]
	f.Walk(func(n *Node[T], _ int) bool {
		if found != nil {
			return false
		}
		if match(n.Item) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Flatten returns every item in pre-order.
func (f Forest[T]) Flatten() []T {
	var out []T
	f.Walk(func(n *Node[T], _ int) bool {
		out = append(out, n.Item)
		return true
	})
	return out
}

// Len counts nodes in the forest.
func (f Forest[T]) Len() int {
	count := 0
	f.Walk(func(*Node[T], int) bool {
		count++
		return true
	})
	return count
}

// Prune returns a copy of the forest cut below depth levels (1 keeps only the
// roots). A depth of zero or less returns the forest unchanged.
func (f Forest[T]) Prune(depth int) Forest[T] {
	if depth <= 0 {
		return f
	}
	out := make(Forest[T], 0, len(f))
	for _, n := range f {
		out = append(out, prune(n, depth))
	}
	return out
}

func prune[T Keyed](n *Node[T], depth int) *Node[T] {
	cp := &Node[T]{Item: n.Item, Children: []*Node[T]{}}
	if depth <= 1 {
		return cp
	}
	for _, c := range n.Children {
		cp.Children = append(cp.Children, prune(c, depth-1))
	}
	return cp
}

// MarshalJSON renders the record's own fields with a "children" array added.
func (n *Node[T]) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(n.Item)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("tree node must encode as an object: %w", err)
	}
	children := n.Children
	if children == nil {
		children = []*Node[T]{}
	}
	encoded, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	fields["children"] = encoded
	return json.Marshal(fields)
}
