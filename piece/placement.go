package piece

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/domino14/blockgrid/bitboard"
)

// Placement is a piece anchored with its bounding box's top-left corner at
// (X, Y), and the cells it covers there.
type Placement struct {
	PieceID ID
	X       int
	Y       int
	Mask    bitboard.Board
}

func (p Placement) String() string {
	return fmt.Sprintf("%d@(%d,%d)", p.PieceID, p.X, p.Y)
}

// precompute lists every in-bounds anchor of p in row-major order.
func precompute(p Piece) []Placement {
	pls := make([]Placement, 0, (bitboard.Dim-p.w+1)*(bitboard.Dim-p.h+1))
	for y := 0; y+p.h <= bitboard.Dim; y++ {
		for x := 0; x+p.w <= bitboard.Dim; x++ {
			pls = append(pls, Placement{PieceID: p.id, X: x, Y: y, Mask: p.MaskAt(x, y)})
		}
	}
	return pls
}

// Placements returns every anchor of the piece on an empty board, in
// row-major order.
func (c *Catalog) Placements(id ID) []Placement {
	return slices.Clone(c.placements[id])
}

// MaskAt is Piece.MaskAt by id. Unknown ids give the empty board.
func (c *Catalog) MaskAt(id ID, x, y int) bitboard.Board {
	p, ok := c.pieces[id]
	if !ok {
		return bitboard.Empty
	}
	return p.MaskAt(x, y)
}

// CanPlace is the package CanPlace by id.
func (c *Catalog) CanPlace(b bitboard.Board, id ID, x, y int) bool {
	p, ok := c.pieces[id]
	return ok && CanPlace(b, p, x, y)
}

// LegalPlacements filters the piece's precomputed anchors down to those that
// do not overlap b. Order is row-major.
func (c *Catalog) LegalPlacements(b bitboard.Board, id ID) []Placement {
	return lo.Filter(c.placements[id], func(pl Placement, _ int) bool {
		return !b.Overlaps(pl.Mask)
	})
}

// CountLegal is len(LegalPlacements(b, id)) without allocating.
func (c *Catalog) CountLegal(b bitboard.Board, id ID) int {
	n := 0
	for _, pl := range c.placements[id] {
		if !b.Overlaps(pl.Mask) {
			n++
		}
	}
	return n
}

// TotalLegal sums CountLegal over every piece in the catalog.
func (c *Catalog) TotalLegal(b bitboard.Board) int {
	n := 0
	for _, id := range c.ids {
		n += c.CountLegal(b, id)
	}
	return n
}

// EachLegal calls fn for every legal placement of id on b, in row-major
// order, until fn returns false.
func (c *Catalog) EachLegal(b bitboard.Board, id ID, fn func(Placement) bool) {
	for _, pl := range c.placements[id] {
		if b.Overlaps(pl.Mask) {
			continue
		}
		if !fn(pl) {
			return
		}
	}
}
