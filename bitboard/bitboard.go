// Package bitboard implements the 8x8 occupancy grid as a single 64-bit word.
// Bit index is row*8 + column; x is the column and y is the row.
package bitboard

import (
	"fmt"
	"math/bits"
)

const (
	// Dim is the length of a side of the board.
	Dim = 8
	// NumCells is the number of cells on the board.
	NumCells = Dim * Dim

	fullRow  = uint64(0xFF)
	fullCol  = uint64(0x0101010101010101)
	allCells = ^uint64(0)
)

// Board is a set of occupied cells. It is a plain value; every operation
// returns a new Board rather than modifying its receiver.
type Board uint64

// Empty is the board with no occupied cells.
const Empty Board = 0

// Full is the board with every cell occupied.
const Full = Board(allCells)

var (
	// RowMask[y] has every cell of row y set.
	RowMask [Dim]Board
	// ColMask[x] has every cell of column x set.
	ColMask [Dim]Board
)

func init() {
	for i := 0; i < Dim; i++ {
		RowMask[i] = Board(fullRow << (i * Dim))
		ColMask[i] = Board(fullCol << i)
	}
}

// Index returns the bit index for the cell at column x and row y. It panics
// if the coordinates are off the board.
func Index(x, y int) int {
	if x < 0 || x >= Dim || y < 0 || y >= Dim {
		panic(fmt.Sprintf("cell (%d,%d) is off the board", x, y))
	}
	return y*Dim + x
}

// Bit returns a board with only the cell at (x, y) set.
func Bit(x, y int) Board {
	return Board(1) << Index(x, y)
}

// Get reports whether the cell at (x, y) is occupied.
func (b Board) Get(x, y int) bool {
	return b&Bit(x, y) != 0
}

func (b Board) Set(x, y int) Board {
	return b | Bit(x, y)
}

func (b Board) Clear(x, y int) Board {
	return b &^ Bit(x, y)
}

func (b Board) Toggle(x, y int) Board {
	return b ^ Bit(x, y)
}

// PopCount returns the number of occupied cells.
func (b Board) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// Overlaps reports whether b and o share any occupied cell.
func (b Board) Overlaps(o Board) bool {
	return b&o != 0
}

// RowFull reports whether every cell of row y is occupied.
func (b Board) RowFull(y int) bool {
	return b&RowMask[y] == RowMask[y]
}

// ColFull reports whether every cell of column x is occupied.
func (b Board) ColFull(x int) bool {
	return b&ColMask[x] == ColMask[x]
}

// FilledRows returns the indices of full rows in ascending order.
func (b Board) FilledRows() []int {
	var rows []int
	for y := 0; y < Dim; y++ {
		if b.RowFull(y) {
			rows = append(rows, y)
		}
	}
	return rows
}

// FilledCols returns the indices of full columns in ascending order.
func (b Board) FilledCols() []int {
	var cols []int
	for x := 0; x < Dim; x++ {
		if b.ColFull(x) {
			cols = append(cols, x)
		}
	}
	return cols
}

// LineMask ORs together the masks of the given rows and columns.
func LineMask(rows, cols []int) Board {
	var m Board
	for _, y := range rows {
		m |= RowMask[y]
	}
	for _, x := range cols {
		m |= ColMask[x]
	}
	return m
}

// ClearLines removes every cell of the given rows and columns.
func (b Board) ClearLines(rows, cols []int) Board {
	return b &^ LineMask(rows, cols)
}

// Cells returns the occupied cells as (x, y) pairs in row-major order.
func (b Board) Cells() [][2]int {
	cells := make([][2]int, 0, b.PopCount())
	for rem := uint64(b); rem != 0; rem &= rem - 1 {
		idx := bits.TrailingZeros64(rem)
		cells = append(cells, [2]int{idx % Dim, idx / Dim})
	}
	return cells
}
