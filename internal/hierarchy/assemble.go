// Package hierarchy turns a flat list of parent-referencing records into a forest.
//
// Input order is preserved at every level. A node whose parent is missing from the
// input is promoted to a root instead of being dropped, and parent cycles are cut where
// they close, so every input node appears in the output exactly once.
package hierarchy

import (
	"fmt"
	"strings"
)

// FlatNode is one record of the input. An empty ParentID means the node has no parent.
type FlatNode[P any] struct {
	ID       string
	ParentID string
	Payload  P
}

// TreeNode is a materialized node. Truncated is set when a child edge of this node
// pointed back at one of its ancestors and was cut.
type TreeNode[P any] struct {
	ID        string         `json:"id"`
	Payload   P              `json:"payload"`
	Children  []*TreeNode[P] `json:"children"`
	Truncated bool           `json:"truncated,omitempty"`
}

// Duplicate records a repeated id that was dropped (keep-first policy)
type Duplicate struct {
	ID       string `json:"id"`
	Position int    `json:"position"` // index in the input
}

// Forest is the result of Assemble
type Forest[P any] struct {
	Roots      []*TreeNode[P] `json:"roots"`
	Duplicates []Duplicate    `json:"duplicates,omitempty"`
}

// IntegrityError reports duplicate ids in the input
type IntegrityError struct {
	Duplicates []Duplicate
}

func (e *IntegrityError) Error() string {
	ids := make([]string, 0, len(e.Duplicates))
	for _, d := range e.Duplicates {
		ids = append(ids, fmt.Sprintf("%s@%d", d.ID, d.Position))
	}
	return "duplicate node ids: " + strings.Join(ids, ", ")
}

// Err returns an *IntegrityError when the input carried duplicate ids
func (f Forest[P]) Err() error {
	if len(f.Duplicates) == 0 {
		return nil
	}
	return &IntegrityError{Duplicates: append([]Duplicate(nil), f.Duplicates...)}
}

// Assemble builds the forest. The first occurrence of a repeated id wins; later ones
// are reported in Forest.Duplicates and left out.
func Assemble[P any](nodes []FlatNode[P]) Forest[P] {
	var forest Forest[P]
	if len(nodes) == 0 {
		forest.Roots = []*TreeNode[P]{}
		return forest
	}

	// Pass 1: id index, first occurrence wins.
	index := make(map[string]int, len(nodes))
	order := make([]int, 0, len(nodes))
	for i, n := range nodes {
		if _, seen := index[n.ID]; seen {
			forest.Duplicates = append(forest.Duplicates, Duplicate{ID: n.ID, Position: i})
			continue
		}
		index[n.ID] = i
		order = append(order, i)
	}

	// Pass 2: parent -> children in input order.
	childrenOf := make(map[string][]int, len(order))
	for _, i := range order {
		if p := nodes[i].ParentID; p != "" {
			childrenOf[p] = append(childrenOf[p], i)
		}
	}

	b := builder[P]{
		nodes:      nodes,
		index:      index,
		childrenOf: childrenOf,
		placed:     make(map[string]bool, len(order)),
	}

	// Roots: no parent, or a parent that is not in the input.
	for _, i := range order {
		n := nodes[i]
		if _, ok := index[n.ParentID]; n.ParentID == "" || !ok {
			forest.Roots = append(forest.Roots, b.materialize(i))
		}
	}

	// Whatever is left hangs on a parent cycle. Promote the first cycle member found
	// in input order; materializing it places the whole cycle and everything below it.
	if len(b.placed) < len(order) {
		for _, i := range order {
			if !b.placed[nodes[i].ID] && b.onCycle(i) {
				forest.Roots = append(forest.Roots, b.materialize(i))
			}
		}
	}

	return forest
}

type builder[P any] struct {
	nodes      []FlatNode[P]
	index      map[string]int
	childrenOf map[string][]int
	placed     map[string]bool
}

// frame is one entry of the explicit DFS stack
type frame[P any] struct {
	node *TreeNode[P]
	kids []int // remaining children to visit
}

// materialize builds the subtree under nodes[root] depth-first without recursion.
// onPath holds the ids of the current ancestor chain.
func (b *builder[P]) materialize(root int) *TreeNode[P] {
	top := b.newNode(root)
	onPath := map[string]bool{top.ID: true}
	stack := []frame[P]{{node: top, kids: b.childrenOf[top.ID]}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if len(f.kids) == 0 {
			delete(onPath, f.node.ID)
			stack = stack[:len(stack)-1]
			continue
		}
		i := f.kids[0]
		f.kids = f.kids[1:]
		id := b.nodes[i].ID

		if onPath[id] {
			f.node.Truncated = true
			continue
		}
		if b.placed[id] {
			continue
		}

		child := b.newNode(i)
		f.node.Children = append(f.node.Children, child)
		onPath[id] = true
		stack = append(stack, frame[P]{node: child, kids: b.childrenOf[id]})
	}
	return top
}

func (b *builder[P]) newNode(i int) *TreeNode[P] {
	n := b.nodes[i]
	b.placed[n.ID] = true
	return &TreeNode[P]{ID: n.ID, Payload: n.Payload, Children: []*TreeNode[P]{}}
}

// onCycle reports whether following parent links from nodes[i] leads back to it
func (b *builder[P]) onCycle(i int) bool {
	start := b.nodes[i].ID
	id := b.nodes[i].ParentID
	for steps := 0; steps < len(b.index); steps++ {
		if id == start {
			return true
		}
		j, ok := b.index[id]
		if !ok {
			return false
		}
		id = b.nodes[j].ParentID
	}
	return false
}

// Len counts every node of the forest
func (f Forest[P]) Len() int {
	n := 0
	f.Walk(func(*TreeNode[P], int) bool {
		n++
		return true
	})
	return n
}

// Walk visits nodes depth-first in order. Returning false from fn skips the children
// of that node.
func (f Forest[P]) Walk(fn func(node *TreeNode[P], depth int) bool) {
	type item struct {
		node  *TreeNode[P]
		depth int
	}
	stack := make([]item, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, item{f.Roots[i], 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.node, it.depth) {
			continue
		}
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}
}

// Find returns the node with the given id, or nil
func (f Forest[P]) Find(id string) *TreeNode[P] {
	var found *TreeNode[P]
	f.Walk(func(n *TreeNode[P], _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
