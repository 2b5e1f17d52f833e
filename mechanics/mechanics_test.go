package mechanics

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/piece"
)

func TestPlaceSingleCellOnEmptyBoard(t *testing.T) {
	is := is.New(t)
	mono := piece.Default().MustPiece(1)
	res := Place(bitboard.Empty, mono.MaskAt(0, 0))
	is.Equal(uint64(res.After), uint64(1))
	is.Equal(res.Before, res.After)
	is.Equal(len(res.ClearedRows), 0)
	is.Equal(len(res.ClearedCols), 0)
	is.Equal(res.CellsCleared, 0)
}

func TestPlaceCompletesRow(t *testing.T) {
	is := is.New(t)
	b := bitboard.RowMask[0].Clear(7, 0)
	mono := piece.Default().MustPiece(1)
	is.True(piece.CanPlace(b, mono, 7, 0))

	res := Place(b, mono.MaskAt(7, 0))
	is.Equal(res.ClearedRows, []int{0})
	is.Equal(len(res.ClearedCols), 0)
	is.Equal(res.CellsCleared, 8)
	is.Equal(res.After, bitboard.Empty)
	is.True(!res.After.Get(0, 0))
	is.Equal(res.Before, bitboard.RowMask[0])
	is.Equal(res.LinesCleared(), 1)
}

func TestPlaceCountsIntersectionOnce(t *testing.T) {
	is := is.New(t)
	// Row 4 and column 2 both wait on the cell (2, 4).
	b := (bitboard.RowMask[4] | bitboard.ColMask[2]).Clear(2, 4)
	res := Place(b, bitboard.Bit(2, 4))
	is.Equal(res.ClearedRows, []int{4})
	is.Equal(res.ClearedCols, []int{2})
	is.Equal(res.CellsCleared, 15)
	is.Equal(res.After, bitboard.Empty)

	res = Place(bitboard.Full&^bitboard.Bit(0, 0), bitboard.Bit(0, 0))
	is.Equal(res.CellsCleared, 64)
	is.Equal(res.After, bitboard.Empty)
}

func TestPlaceNeverGrowsBeyondUnion(t *testing.T) {
	is := is.New(t)
	c := piece.Default()
	for i := 0; i < 2000; i++ {
		b := bitboard.Board(frand.Uint64n(^uint64(0)))
		// sparsen so placements are sometimes legal
		b &= bitboard.Board(frand.Uint64n(^uint64(0)))
		id := piece.ID(frand.Intn(int(piece.MaxID)) + 1)
		p := c.MustPiece(id)
		x, y := frand.Intn(bitboard.Dim), frand.Intn(bitboard.Dim)
		m := p.MaskAt(x, y)
		res := Place(b, m)
		is.True(res.After.PopCount() <= (b | m).PopCount())
		is.Equal(res.Before, b|m)
		is.Equal(res.After.PopCount(), res.Before.PopCount()-res.CellsCleared)
		is.Equal(len(res.After.FilledRows()), 0)
		is.Equal(len(res.After.FilledCols()), 0)
	}
}

func TestMobilityEmptyBoard(t *testing.T) {
	is := is.New(t)
	c := piece.Default()
	want := 0
	for _, p := range c.Pieces() {
		want += (bitboard.Dim - p.Width() + 1) * (bitboard.Dim - p.Height() + 1)
	}
	is.Equal(Mobility(c, bitboard.Empty), want)
	is.Equal(Evaluate(c, bitboard.Empty), 100*want)
	is.Equal(Mobility(c, bitboard.Full), 0)
	is.Equal(Evaluate(c, bitboard.Full), -64)
}

func TestMobilitySingleHole(t *testing.T) {
	is := is.New(t)
	c := piece.Default()
	b := bitboard.Full.Clear(3, 3)
	// only the single cell fits
	is.Equal(Mobility(c, b), 1)
	is.Equal(Evaluate(c, b), 100-63)
}

func TestMobilityDoesNotAllocate(t *testing.T) {
	is := is.New(t)
	c := piece.Default()
	b := bitboard.RowMask[0] | bitboard.ColMask[5]
	allocs := testing.AllocsPerRun(100, func() {
		Mobility(c, b)
	})
	is.Equal(allocs, 0.0)
}

func TestClearPotential(t *testing.T) {
	is := is.New(t)
	c := piece.Default()
	is.Equal(ClearPotential(c, bitboard.Empty), 0)

	b := bitboard.RowMask[0].Clear(7, 0)
	// the gap at (7, 0) completes row 0; nothing can fill column 7
	is.Equal(ClearPotential(c, b), 1)

	b = (bitboard.RowMask[4] | bitboard.ColMask[2]).Clear(2, 4)
	is.Equal(ClearPotential(c, b), 2)
}

func BenchmarkMobility(b *testing.B) {
	c := piece.Default()
	board := bitboard.RowMask[0] | bitboard.ColMask[3] | bitboard.Bit(6, 6)
	for i := 0; i < b.N; i++ {
		Mobility(c, board)
	}
}
