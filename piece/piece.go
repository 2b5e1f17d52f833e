// Package piece holds the fixed-orientation piece shapes and the geometry
// of placing them on a bitboard.
package piece

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/blockgrid/bitboard"
)

// ID identifies a piece in a catalog.
type ID int

const (
	MinID ID = 1
	MaxID ID = 41
)

// Cell is an offset from the top-left corner of a piece's bounding box.
type Cell struct {
	X int
	Y int
}

// Piece is an immutable shape. Its cell list is never exposed directly;
// Cells returns a copy.
type Piece struct {
	id        ID
	name      string
	w, h      int
	cells     []Cell
	signature string
	// base is the shape's mask with its bounding box anchored at (0, 0).
	base bitboard.Board
}

func newPiece(id ID, name string, w, h int, cells []Cell) Piece {
	p := Piece{
		id:        id,
		name:      name,
		w:         w,
		h:         h,
		cells:     slices.Clone(cells),
		signature: Signature(cells),
	}
	for _, c := range cells {
		p.base = p.base.Set(c.X, c.Y)
	}
	return p
}

func (p Piece) ID() ID            { return p.id }
func (p Piece) Name() string      { return p.name }
func (p Piece) Width() int        { return p.w }
func (p Piece) Height() int       { return p.h }
func (p Piece) Size() int         { return len(p.cells) }
func (p Piece) Signature() string { return p.signature }

func (p Piece) Cells() []Cell {
	return slices.Clone(p.cells)
}

func (p Piece) String() string {
	return fmt.Sprintf("<piece %d %s %dx%d>", p.id, p.name, p.w, p.h)
}

// ToDisplayText draws the shape inside its bounding box.
func (p Piece) ToDisplayText() string {
	var sb strings.Builder
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			if p.base.Get(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// MaskAt returns the cells covered by p with its bounding box's top-left
// corner at (x, y). It returns the empty board if any part of the bounding
// box would leave the board.
func (p Piece) MaskAt(x, y int) bitboard.Board {
	if x < 0 || y < 0 || x+p.w > bitboard.Dim || y+p.h > bitboard.Dim {
		return bitboard.Empty
	}
	return p.base << (y*bitboard.Dim + x)
}

// CanPlace reports whether p fits at (x, y) on b without leaving the board or
// overlapping an occupied cell.
func CanPlace(b bitboard.Board, p Piece, x, y int) bool {
	m := p.MaskAt(x, y)
	return m != bitboard.Empty && !b.Overlaps(m)
}

// Signature returns the canonical form of a set of cells: translated so the
// minimum x and y are zero, sorted by x then y, and rendered as
// "x,y;x,y;...". Two shapes are the same (up to translation) iff their
// signatures match.
func Signature(cells []Cell) string {
	if len(cells) == 0 {
		return ""
	}
	minX := lo.MinBy(cells, func(a, b Cell) bool { return a.X < b.X }).X
	minY := lo.MinBy(cells, func(a, b Cell) bool { return a.Y < b.Y }).Y
	norm := lo.Map(cells, func(c Cell, _ int) Cell {
		return Cell{X: c.X - minX, Y: c.Y - minY}
	})
	slices.SortFunc(norm, func(a, b Cell) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Y - b.Y
	})
	parts := lo.Map(norm, func(c Cell, _ int) string {
		return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
	})
	return strings.Join(parts, ";")
}
