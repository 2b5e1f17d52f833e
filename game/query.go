package game

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/domino14/blockgrid/move"
	"github.com/domino14/blockgrid/solver"
)

// Path lists node ids from the root down to id, inclusive.
func (t *StateTree) Path(id NodeID) ([]NodeID, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	path := []NodeID{n.id}
	for n.hasParent {
		n = t.nodes[n.parentID]
		path = append(path, n.id)
	}
	slices.Reverse(path)
	return path, nil
}

// Depth is the number of edges between the root and id.
func (t *StateTree) Depth(id NodeID) (int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, notFound(id)
	}
	d := 0
	for n.hasParent {
		n = t.nodes[n.parentID]
		d++
	}
	return d, nil
}

// Leaves returns the ids of all nodes without children, ascending.
func (t *StateTree) Leaves() []NodeID {
	var leaves []NodeID
	for id, n := range t.nodes {
		if len(n.childIDs) == 0 {
			leaves = append(leaves, id)
		}
	}
	slices.Sort(leaves)
	return leaves
}

// Children returns the child nodes of id in creation order.
func (t *StateTree) Children(id NodeID) ([]*GameNode, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	return lo.Map(n.childIDs, func(c NodeID, _ int) *GameNode {
		return t.nodes[c]
	}), nil
}

// Siblings returns the other children of id's parent. The root has none.
func (t *StateTree) Siblings(id NodeID) ([]NodeID, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	if !n.hasParent {
		return nil, nil
	}
	return lo.Without(t.nodes[n.parentID].childIDs, id), nil
}

// Walk visits every node depth first from the root, children in creation
// order. fn receives the node's depth; returning false skips its subtree.
func (t *StateTree) Walk(fn func(n *GameNode, depth int) bool) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		n := t.nodes[id]
		if !fn(n, depth) {
			return
		}
		for _, c := range n.childIDs {
			visit(c, depth+1)
		}
	}
	visit(t.root, 0)
}

// PathStats summarizes the moves on the path from the root to a node.
type PathStats struct {
	Depth        int
	Placements   int
	Edits        int
	HandChanges  int
	LinesCleared int
	CellsCleared int
}

func (s PathStats) String() string {
	return fmt.Sprintf("depth=%d placed=%d edits=%d hands=%d lines=%d score=%d",
		s.Depth, s.Placements, s.Edits, s.HandChanges, s.LinesCleared, s.CellsCleared)
}

// Stats totals the moves leading to id. CellsCleared is the session score.
func (t *StateTree) Stats(id NodeID) (PathStats, error) {
	path, err := t.Path(id)
	if err != nil {
		return PathStats{}, err
	}
	st := PathStats{Depth: len(path) - 1}
	for _, pid := range path {
		m := t.nodes[pid].move
		if m == nil {
			continue
		}
		switch m.Action() {
		case move.MoveTypePlace:
			st.Placements++
			st.LinesCleared += m.LinesCleared()
			st.CellsCleared += m.CellsCleared()
		case move.MoveTypeEditCell:
			st.Edits++
		case move.MoveTypeSetHand:
			st.HandChanges++
		}
	}
	return st, nil
}

// ApplySolution applies every step of sol through ApplyPlace, starting at
// the current node. On failure the original tree is still valid and the
// returned error names the step that was rejected.
func ApplySolution(t *StateTree, sol solver.Solution) (*StateTree, error) {
	cur := t
	for i, st := range sol.Steps {
		next, err := cur.ApplyPlace(st.PieceID, st.HandIndex, st.X, st.Y)
		if err != nil {
			return nil, fmt.Errorf("step %d (%v): %w", i, st, err)
		}
		cur = next
	}
	return cur, nil
}
