// Package move describes the three kinds of change a state tree records:
// placing a piece, toggling a cell by hand, and replacing the hand.
package move

import (
	"fmt"
	"slices"

	"github.com/domino14/blockgrid/piece"
)

// MoveType is the kind of a move.
type MoveType uint8

const (
	MoveTypePlace MoveType = iota
	MoveTypeEditCell
	MoveTypeSetHand
)

func (t MoveType) String() string {
	switch t {
	case MoveTypePlace:
		return "Place"
	case MoveTypeEditCell:
		return "EditCell"
	case MoveTypeSetHand:
		return "SetHand"
	}
	return "UNHANDLED"
}

// Move is a closed variant: only the fields belonging to its type are
// meaningful. Moves are immutable once built; slice accessors return copies.
type Move struct {
	action MoveType

	// Place
	pieceID     piece.ID
	handIndex   int
	clearedRows []int
	clearedCols []int

	// Place anchor, or EditCell coordinates
	x, y int

	// EditCell
	priorOccupied bool

	// SetHand
	previousHand []piece.ID
	newHand      []piece.ID
}

// NewPlaceMove records piece pieceID from hand slot handIndex anchored at
// (x, y), and the lines that cleared as a result.
func NewPlaceMove(pieceID piece.ID, handIndex, x, y int, clearedRows, clearedCols []int) *Move {
	return &Move{
		action:      MoveTypePlace,
		pieceID:     pieceID,
		handIndex:   handIndex,
		x:           x,
		y:           y,
		clearedRows: slices.Clone(clearedRows),
		clearedCols: slices.Clone(clearedCols),
	}
}

// NewEditCellMove records a toggle of (x, y); priorOccupied is the cell's
// state before the toggle.
func NewEditCellMove(x, y int, priorOccupied bool) *Move {
	return &Move{action: MoveTypeEditCell, x: x, y: y, priorOccupied: priorOccupied}
}

func NewSetHandMove(previousHand, newHand []piece.ID) *Move {
	return &Move{
		action:       MoveTypeSetHand,
		previousHand: slices.Clone(previousHand),
		newHand:      slices.Clone(newHand),
	}
}

func (m *Move) Action() MoveType         { return m.action }
func (m *Move) PieceID() piece.ID        { return m.pieceID }
func (m *Move) HandIndex() int           { return m.handIndex }
func (m *Move) X() int                   { return m.x }
func (m *Move) Y() int                   { return m.y }
func (m *Move) PriorOccupied() bool      { return m.priorOccupied }
func (m *Move) ClearedRows() []int       { return slices.Clone(m.clearedRows) }
func (m *Move) ClearedCols() []int       { return slices.Clone(m.clearedCols) }
func (m *Move) PreviousHand() []piece.ID { return slices.Clone(m.previousHand) }
func (m *Move) NewHand() []piece.ID      { return slices.Clone(m.newHand) }

// LinesCleared is the number of rows and columns a Place move cleared.
func (m *Move) LinesCleared() int {
	return len(m.clearedRows) + len(m.clearedCols)
}

// CellsCleared is the number of cells a Place move removed from the board.
func (m *Move) CellsCleared() int {
	nr, nc := len(m.clearedRows), len(m.clearedCols)
	return 8*nr + 8*nc - nr*nc
}

// ShortDescription provides a short description, useful for logging or
// user display.
func (m *Move) ShortDescription() string {
	switch m.action {
	case MoveTypePlace:
		s := fmt.Sprintf("place %d[%d] @%d,%d", m.pieceID, m.handIndex, m.x, m.y)
		if m.LinesCleared() > 0 {
			s += fmt.Sprintf(" clear r%v c%v", m.clearedRows, m.clearedCols)
		}
		return s
	case MoveTypeEditCell:
		if m.priorOccupied {
			return fmt.Sprintf("edit %d,%d (clear)", m.x, m.y)
		}
		return fmt.Sprintf("edit %d,%d (fill)", m.x, m.y)
	case MoveTypeSetHand:
		return fmt.Sprintf("hand %v -> %v", m.previousHand, m.newHand)
	}
	return "UNHANDLED"
}

// String provides a string just for debugging purposes.
func (m *Move) String() string {
	return fmt.Sprintf("<%p %s: %s>", m, m.action, m.ShortDescription())
}

// Equal compares two moves by content.
func (m *Move) Equal(o *Move) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.action == o.action &&
		m.pieceID == o.pieceID &&
		m.handIndex == o.handIndex &&
		m.x == o.x && m.y == o.y &&
		m.priorOccupied == o.priorOccupied &&
		slices.Equal(m.clearedRows, o.clearedRows) &&
		slices.Equal(m.clearedCols, o.clearedCols) &&
		slices.Equal(m.previousHand, o.previousHand) &&
		slices.Equal(m.newHand, o.newHand)
}
