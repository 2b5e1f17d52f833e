// Package game keeps the history of a puzzle session as a persistent tree of
// board and hand snapshots. Every mutator returns a new tree and leaves its
// receiver untouched, so any earlier tree value remains valid and any node
// can be checked out again later.
package game

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/mechanics"
	"github.com/domino14/blockgrid/move"
	"github.com/domino14/blockgrid/piece"
)

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrNodeNotFound = errors.New("node not found")
)

// StateTree owns every node it has created. It is a value: mutators copy the
// node map (not the nodes) and return the new tree.
type StateTree struct {
	catalog *piece.Catalog
	nodes   map[NodeID]*GameNode
	root    NodeID
	current NodeID
	nextID  NodeID
	clock   func() time.Time
}

type Option func(*StateTree)

// WithClock sets the time source used to stamp new nodes.
func WithClock(clock func() time.Time) Option {
	return func(t *StateTree) {
		t.clock = clock
	}
}

// NewStateTree creates a tree whose root holds the given board and hand, with
// every hand slot unused.
func NewStateTree(catalog *piece.Catalog, board bitboard.Board, hand []piece.ID,
	opts ...Option) (*StateTree, error) {

	if err := validateHand(catalog, hand); err != nil {
		return nil, err
	}
	t := &StateTree{
		catalog: catalog,
		nodes:   map[NodeID]*GameNode{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	root := &GameNode{
		id:        t.nextID,
		board:     board,
		hand:      slices.Clone(hand),
		handUsed:  make([]bool, len(hand)),
		createdAt: t.clock(),
	}
	t.nodes[root.id] = root
	t.root = root.id
	t.current = root.id
	t.nextID++
	return t, nil
}

func validateHand(catalog *piece.Catalog, hand []piece.ID) error {
	for i, id := range hand {
		if _, ok := catalog.Piece(id); !ok {
			return fmt.Errorf("%w: hand slot %d: %w %d", ErrInvalidMove, i, piece.ErrUnknownPiece, id)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}

func notFound(id NodeID) error {
	return fmt.Errorf("%w: %w: %d", ErrInvalidMove, ErrNodeNotFound, id)
}

func (t *StateTree) Catalog() *piece.Catalog { return t.catalog }

func (t *StateTree) RootID() NodeID    { return t.root }
func (t *StateTree) CurrentID() NodeID { return t.current }

func (t *StateTree) Root() *GameNode    { return t.nodes[t.root] }
func (t *StateTree) Current() *GameNode { return t.nodes[t.current] }

// Node looks up a node by id.
func (t *StateTree) Node(id NodeID) (*GameNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len is the number of nodes in the tree.
func (t *StateTree) Len() int {
	return len(t.nodes)
}

// clone copies the tree header and node map. Nodes are shared.
func (t *StateTree) clone() *StateTree {
	cp := *t
	cp.nodes = maps.Clone(t.nodes)
	return &cp
}

// appendChild adds a node derived from the current one and checks it out.
func (t *StateTree) appendChild(board bitboard.Board, hand []piece.ID, used []bool,
	m *move.Move) *StateTree {

	nt := t.clone()
	parent := nt.nodes[nt.current]
	child := &GameNode{
		id:        nt.nextID,
		parentID:  parent.id,
		hasParent: true,
		board:     board,
		hand:      hand,
		handUsed:  used,
		move:      m,
		createdAt: nt.clock(),
	}
	nt.nextID++
	nt.nodes[parent.id] = parent.withChild(child.id)
	nt.nodes[child.id] = child
	nt.current = child.id
	log.Debug().Uint64("parent", uint64(parent.id)).Uint64("node", uint64(child.id)).
		Str("move", m.ShortDescription()).Msg("tree-append")
	return nt
}

// ApplyPlace places the piece in hand slot handIndex with its top-left corner
// at (x, y). The slot must be unused and hold pieceID, and the piece must fit
// without overlap. Completed lines are cleared and the slot is marked used.
func (t *StateTree) ApplyPlace(pieceID piece.ID, handIndex, x, y int) (*StateTree, error) {
	cur := t.Current()
	if handIndex < 0 || handIndex >= len(cur.hand) {
		return nil, invalid("hand index %d out of range [0, %d)", handIndex, len(cur.hand))
	}
	if cur.handUsed[handIndex] {
		return nil, invalid("hand slot %d already used", handIndex)
	}
	if cur.hand[handIndex] != pieceID {
		return nil, invalid("hand slot %d holds piece %d, not %d", handIndex,
			cur.hand[handIndex], pieceID)
	}
	p, ok := t.catalog.Piece(pieceID)
	if !ok {
		return nil, fmt.Errorf("%w: %w %d", ErrInvalidMove, piece.ErrUnknownPiece, pieceID)
	}
	mask := p.MaskAt(x, y)
	if mask == bitboard.Empty {
		return nil, invalid("piece %d at (%d,%d) leaves the board", pieceID, x, y)
	}
	if cur.board.Overlaps(mask) {
		return nil, invalid("piece %d at (%d,%d) overlaps occupied cells", pieceID, x, y)
	}
	res := mechanics.Place(cur.board, mask)
	used := slices.Clone(cur.handUsed)
	used[handIndex] = true
	m := move.NewPlaceMove(pieceID, handIndex, x, y, res.ClearedRows, res.ClearedCols)
	return t.appendChild(res.After, slices.Clone(cur.hand), used, m), nil
}

// ApplyEditCell toggles a single cell regardless of placement rules. It only
// fails for coordinates off the board.
func (t *StateTree) ApplyEditCell(x, y int) (*StateTree, error) {
	if x < 0 || x >= bitboard.Dim || y < 0 || y >= bitboard.Dim {
		return nil, invalid("cell (%d,%d) is off the board", x, y)
	}
	cur := t.Current()
	m := move.NewEditCellMove(x, y, cur.board.Get(x, y))
	return t.appendChild(cur.board.Toggle(x, y), slices.Clone(cur.hand),
		slices.Clone(cur.handUsed), m), nil
}

// ApplySetHand replaces the hand wholesale and marks every slot unused.
func (t *StateTree) ApplySetHand(newHand []piece.ID) (*StateTree, error) {
	if err := validateHand(t.catalog, newHand); err != nil {
		return nil, err
	}
	cur := t.Current()
	m := move.NewSetHandMove(cur.hand, newHand)
	return t.appendChild(cur.board, slices.Clone(newHand), make([]bool, len(newHand)), m), nil
}

// Checkout makes id the current node.
func (t *StateTree) Checkout(id NodeID) (*StateTree, error) {
	if _, ok := t.nodes[id]; !ok {
		return nil, notFound(id)
	}
	if id == t.current {
		return t, nil
	}
	nt := t.clone()
	nt.current = id
	return nt, nil
}

// Undo checks out the current node's parent. At the root it returns t.
func (t *StateTree) Undo() *StateTree {
	parent, ok := t.Current().ParentID()
	if !ok {
		return t
	}
	nt, _ := t.Checkout(parent)
	return nt
}

// Redo checks out the most recently created child of the current node. Older
// sibling branches are only reachable with Checkout. At a leaf it returns t.
func (t *StateTree) Redo() *StateTree {
	children := t.Current().childIDs
	if len(children) == 0 {
		return t
	}
	nt, _ := t.Checkout(children[len(children)-1])
	return nt
}

// DeleteBranch removes id and all of its descendants. The root, the current
// node and any ancestor of the current node cannot be deleted.
func (t *StateTree) DeleteBranch(id NodeID) (*StateTree, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	if id == t.root {
		return nil, invalid("cannot delete the root")
	}
	if id == t.current {
		return nil, invalid("cannot delete the current node")
	}
	if t.isAncestor(id, t.current) {
		return nil, invalid("node %d is an ancestor of the current node", id)
	}
	nt := t.clone()
	removed := 0
	stack := []NodeID{id}
	for len(stack) > 0 {
		last := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, nt.nodes[last].childIDs...)
		delete(nt.nodes, last)
		removed++
	}
	nt.nodes[n.parentID] = nt.nodes[n.parentID].withoutChild(id)
	log.Debug().Uint64("node", uint64(id)).Int("removed", removed).Msg("tree-delete-branch")
	return nt, nil
}

// isAncestor reports whether a is a strict ancestor of d.
func (t *StateTree) isAncestor(a, d NodeID) bool {
	n := t.nodes[d]
	for n.hasParent {
		if n.parentID == a {
			return true
		}
		n = t.nodes[n.parentID]
	}
	return false
}
