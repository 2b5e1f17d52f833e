package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/move"
	"github.com/domino14/blockgrid/piece"
)

// NodeID identifies a node within a tree. Ids are issued in increasing order
// and never reused, even after the node is deleted.
type NodeID uint64

// GameNode is one immutable snapshot of the board and hand, together with the
// move that produced it from its parent.
type GameNode struct {
	id        NodeID
	parentID  NodeID
	hasParent bool
	childIDs  []NodeID

	board    bitboard.Board
	hand     []piece.ID
	handUsed []bool
	move     *move.Move

	createdAt time.Time
}

func (n *GameNode) ID() NodeID { return n.id }

// ParentID returns the parent's id, or false for the root.
func (n *GameNode) ParentID() (NodeID, bool) {
	return n.parentID, n.hasParent
}

func (n *GameNode) IsRoot() bool { return !n.hasParent }

// ChildIDs lists children in the order they were created.
func (n *GameNode) ChildIDs() []NodeID {
	return slices.Clone(n.childIDs)
}

func (n *GameNode) NumChildren() int { return len(n.childIDs) }

func (n *GameNode) Board() bitboard.Board { return n.board }

func (n *GameNode) Hand() []piece.ID {
	return slices.Clone(n.hand)
}

func (n *GameNode) HandUsed() []bool {
	return slices.Clone(n.handUsed)
}

// Move is the move that produced this node; nil at the root.
func (n *GameNode) Move() *move.Move { return n.move }

func (n *GameNode) CreatedAt() time.Time { return n.createdAt }

// Unused returns the piece ids of the unused hand slots and the slot indices
// they came from, in hand order.
func (n *GameNode) Unused() ([]piece.ID, []int) {
	var ids []piece.ID
	var idxs []int
	for i, id := range n.hand {
		if !n.handUsed[i] {
			ids = append(ids, id)
			idxs = append(idxs, i)
		}
	}
	return ids, idxs
}

// HandExhausted reports whether every slot of the hand has been used.
func (n *GameNode) HandExhausted() bool {
	return !slices.Contains(n.handUsed, false)
}

func (n *GameNode) String() string {
	desc := "root"
	if n.move != nil {
		desc = n.move.ShortDescription()
	}
	return fmt.Sprintf("<node %d %s hand=%v used=%v>", n.id, desc, n.hand, n.handUsed)
}

// withChild returns a copy of n with id appended to its child list.
func (n *GameNode) withChild(id NodeID) *GameNode {
	cp := *n
	cp.childIDs = append(slices.Clone(n.childIDs), id)
	return &cp
}

// withoutChild returns a copy of n with id removed from its child list.
func (n *GameNode) withoutChild(id NodeID) *GameNode {
	cp := *n
	cp.childIDs = slices.DeleteFunc(slices.Clone(n.childIDs), func(c NodeID) bool {
		return c == id
	})
	return &cp
}
