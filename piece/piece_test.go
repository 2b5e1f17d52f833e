package piece

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockgrid/bitboard"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestDefaultCatalog(t *testing.T) {
	is := is.New(t)
	c := Default()
	is.Equal(c.Len(), 41)
	ids := c.IDs()
	is.Equal(ids[0], MinID)
	is.Equal(ids[len(ids)-1], MaxID)

	sigs := map[string]bool{}
	for _, p := range c.Pieces() {
		is.True(!sigs[p.Signature()]) // every shape is distinct
		sigs[p.Signature()] = true
	}
	mono := c.MustPiece(1)
	is.Equal(mono.Size(), 1)
	is.Equal(mono.Signature(), "0,0")
	// Default is built once.
	is.True(Default() == c)
}

func TestMaskAtCoversExactlyTheCells(t *testing.T) {
	is := is.New(t)
	for _, p := range Default().Pieces() {
		for y := 0; y < bitboard.Dim; y++ {
			for x := 0; x < bitboard.Dim; x++ {
				m := p.MaskAt(x, y)
				inBounds := x+p.Width() <= bitboard.Dim && y+p.Height() <= bitboard.Dim
				if !inBounds {
					is.Equal(m, bitboard.Empty)
					continue
				}
				is.Equal(m.PopCount(), p.Size())
				for _, c := range p.Cells() {
					is.True(m.Get(x+c.X, y+c.Y))
				}
			}
		}
	}
	is.Equal(Default().MustPiece(4).MaskAt(-1, 0), bitboard.Empty)
}

func TestCanPlaceIffMaskFitsAndNoOverlap(t *testing.T) {
	is := is.New(t)
	boards := []bitboard.Board{
		bitboard.Empty,
		bitboard.RowMask[3],
		bitboard.ColMask[0] | bitboard.Bit(5, 5),
		bitboard.Full &^ bitboard.RowMask[7],
	}
	for _, b := range boards {
		for _, p := range Default().Pieces() {
			for y := -1; y <= bitboard.Dim; y++ {
				for x := -1; x <= bitboard.Dim; x++ {
					m := p.MaskAt(x, y)
					want := m != bitboard.Empty && b&m == 0
					is.Equal(CanPlace(b, p, x, y), want)
				}
			}
		}
	}
}

func TestPlacementTableRowMajor(t *testing.T) {
	is := is.New(t)
	c := Default()
	pls := c.Placements(8) // horizontal five
	is.Equal(len(pls), 4*8)
	is.Equal(pls[0].X, 0)
	is.Equal(pls[0].Y, 0)
	is.Equal(pls[1].X, 1)
	is.Equal(pls[1].Y, 0)
	is.Equal(pls[4].X, 0)
	is.Equal(pls[4].Y, 1)
	for _, pl := range pls {
		is.True(pl.Mask != bitboard.Empty)
		is.Equal(pl.PieceID, ID(8))
	}
	is.Equal(len(c.Placements(11)), 36)
	is.Equal(len(c.Placements(1)), 64)
}

func TestLegalPlacements(t *testing.T) {
	is := is.New(t)
	c := Default()
	b := bitboard.Full &^ bitboard.Bit(2, 3) &^ bitboard.Bit(6, 6)
	legal := c.LegalPlacements(b, 1)
	is.Equal(len(legal), 2)
	is.Equal(legal[0].X, 2)
	is.Equal(legal[0].Y, 3)
	is.Equal(legal[1].X, 6)
	is.Equal(c.CountLegal(b, 1), 2)
	is.Equal(len(c.LegalPlacements(b, 2)), 0)
	is.Equal(c.CountLegal(bitboard.Empty, 11), 36)

	total := 0
	for _, id := range c.IDs() {
		total += c.CountLegal(b, id)
	}
	is.Equal(c.TotalLegal(b), total)
	// the holes are apart, so only the single cell fits
	is.Equal(c.TotalLegal(b), 2)
	var seen []Placement
	c.EachLegal(b, 1, func(pl Placement) bool {
		seen = append(seen, pl)
		return false
	})
	is.Equal(len(seen), 1)
}

func TestSignatureIsTranslationInvariant(t *testing.T) {
	cells := []Cell{{2, 1}, {3, 1}, {2, 2}}
	shifted := []Cell{{0, 0}, {1, 0}, {0, 1}}
	reordered := []Cell{{0, 1}, {0, 0}, {1, 0}}
	assert.Equal(t, "0,0;0,1;1,0", Signature(cells))
	assert.Equal(t, Signature(cells), Signature(shifted))
	assert.Equal(t, Signature(cells), Signature(reordered))
	// a reflection is a different shape
	assert.NotEqual(t, Signature(cells), Signature([]Cell{{0, 0}, {1, 0}, {1, 1}}))
	assert.Equal(t, "", Signature(nil))

	p, ok := Default().BySignature(Signature(cells))
	assert.True(t, ok)
	assert.Equal(t, ID(14), p.ID())
}

func TestCatalogValidation(t *testing.T) {
	cases := []struct {
		name string
		recs []Record
	}{
		{"empty", nil},
		{"id zero", []Record{{ID: 0, W: 1, H: 1, Cells: [][]int{{0, 0}}}}},
		{"id too big", []Record{{ID: 42, W: 1, H: 1, Cells: [][]int{{0, 0}}}}},
		{"no cells", []Record{{ID: 1, W: 1, H: 1}}},
		{"loose box", []Record{{ID: 1, W: 2, H: 1, Cells: [][]int{{0, 0}}}}},
		{"offset origin", []Record{{ID: 1, W: 2, H: 1, Cells: [][]int{{1, 0}}}}},
		{"outside box", []Record{{ID: 1, W: 1, H: 1, Cells: [][]int{{0, 0}, {1, 0}}}}},
		{"bad pair", []Record{{ID: 1, W: 1, H: 1, Cells: [][]int{{0}}}}},
		{"duplicate cell", []Record{{ID: 1, W: 1, H: 1, Cells: [][]int{{0, 0}, {0, 0}}}}},
		{"bad hash", []Record{{ID: 1, W: 1, H: 1, Cells: [][]int{{0, 0}}, Hash: "1,1"}}},
		{"duplicate id", []Record{
			{ID: 3, W: 1, H: 1, Cells: [][]int{{0, 0}}},
			{ID: 3, W: 2, H: 1, Cells: [][]int{{0, 0}, {1, 0}}},
		}},
		{"too wide", []Record{{ID: 1, W: 9, H: 1, Cells: [][]int{{0, 0}, {8, 0}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.recs)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	is := is.New(t)
	recs := Default().Records()
	is.Equal(len(recs), 41)
	for _, r := range recs {
		is.True(r.Hash != "")
	}
	out, err := yaml.Marshal(recs)
	is.NoErr(err)

	path := filepath.Join(t.TempDir(), "pieces.yaml")
	is.NoErr(os.WriteFile(path, out, 0o644))
	c, err := LoadFile(path)
	is.NoErr(err)
	is.Equal(c.Len(), 41)
	for _, p := range Default().Pieces() {
		q, ok := c.Piece(p.ID())
		is.True(ok)
		is.Equal(q.Signature(), p.Signature())
		is.Equal(q.MaskAt(0, 0), p.MaskAt(0, 0))
	}
}

func TestLoadFileErrors(t *testing.T) {
	is := is.New(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	is.True(err != nil)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	is.NoErr(os.WriteFile(path, []byte("{not: [a list"), 0o644))
	_, err = LoadFile(path)
	is.True(errors.Is(err, ErrInvalidCatalog))
}

func TestToDisplayText(t *testing.T) {
	is := is.New(t)
	is.Equal(Default().MustPiece(17).ToDisplayText(), ".#\n##\n")
}
