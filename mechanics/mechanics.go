// Package mechanics implements the rules of placing a piece: OR its mask
// into the board, clear every completed row and column, and measure what is
// left.
package mechanics

import (
	"fmt"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/piece"
)

// Result describes one placement.
type Result struct {
	// After is the board once completed lines have been cleared.
	After bitboard.Board
	// Before is the board with the piece placed, before any clearing.
	Before       bitboard.Board
	ClearedRows  []int
	ClearedCols  []int
	CellsCleared int
}

// LinesCleared is the number of rows plus columns removed.
func (r Result) LinesCleared() int {
	return len(r.ClearedRows) + len(r.ClearedCols)
}

func (r Result) String() string {
	return fmt.Sprintf("<result rows=%v cols=%v cleared=%d>", r.ClearedRows,
		r.ClearedCols, r.CellsCleared)
}

// Place ORs mask into b and clears every row and column that is then full.
// It does not check for overlap; callers validate with piece.CanPlace first.
func Place(b, mask bitboard.Board) Result {
	before := b | mask
	rows := before.FilledRows()
	cols := before.FilledCols()
	nr, nc := len(rows), len(cols)
	return Result{
		After:        before.ClearLines(rows, cols),
		Before:       before,
		ClearedRows:  rows,
		ClearedCols:  cols,
		CellsCleared: bitboard.Dim*nr + bitboard.Dim*nc - nr*nc,
	}
}

// Mobility is the total number of legal placements of every catalog piece on
// b. A higher mobility means more room for future hands.
func Mobility(c *piece.Catalog, b bitboard.Board) int {
	return c.TotalLegal(b)
}

// Evaluate scores a board as 100*mobility minus the number of occupied
// cells.
func Evaluate(c *piece.Catalog, b bitboard.Board) int {
	return 100*Mobility(c, b) - b.PopCount()
}

// ClearPotential counts the distinct rows and columns that at least one
// legal placement of some catalog piece would complete.
func ClearPotential(c *piece.Catalog, b bitboard.Board) int {
	var rows, cols uint8
	for _, id := range c.IDs() {
		c.EachLegal(b, id, func(pl piece.Placement) bool {
			after := b | pl.Mask
			for i := 0; i < bitboard.Dim; i++ {
				if !b.RowFull(i) && after.RowFull(i) {
					rows |= 1 << i
				}
				if !b.ColFull(i) && after.ColFull(i) {
					cols |= 1 << i
				}
			}
			return true
		})
	}
	return bitboard.Board(rows).PopCount() + bitboard.Board(cols).PopCount()
}
