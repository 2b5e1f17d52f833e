package piece

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockgrid/bitboard"
)

var (
	ErrInvalidCatalog = errors.New("invalid piece catalog")
	ErrUnknownPiece   = errors.New("unknown piece")
)

//go:embed data/pieces.yaml
var defaultCatalogYAML []byte

// Record is one entry of a catalog source. Hash is optional; when present it
// must match the signature computed from Cells.
type Record struct {
	ID    int     `yaml:"id"`
	Name  string  `yaml:"name,omitempty"`
	W     int     `yaml:"w"`
	H     int     `yaml:"h"`
	Cells [][]int `yaml:"cells"`
	Hash  string  `yaml:"hash,omitempty"`
}

// Catalog is a read-only set of pieces keyed by id, together with the
// precomputed placement table for each piece on an empty board.
type Catalog struct {
	ids         []ID
	pieces      map[ID]Piece
	bySignature map[string]ID
	placements  map[ID][]Placement
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in 41-piece catalog. It is built once per
// process and shared.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic("embedded piece catalog is invalid: " + err.Error())
		}
		log.Debug().Int("pieces", c.Len()).Msg("loaded-default-catalog")
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bts, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	c, err := Parse(bts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("pieces", c.Len()).Msg("loaded-catalog")
	return c, nil
}

// Parse decodes YAML catalog records and builds a catalog from them.
func Parse(data []byte) (*Catalog, error) {
	var recs []Record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(recs)
}

// New validates the records and builds a catalog. Ids must be unique and in
// [MinID, MaxID], and each record's bounding box must be tight around its
// cells.
func New(recs []Record) (*Catalog, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no pieces", ErrInvalidCatalog)
	}
	c := &Catalog{
		pieces:      make(map[ID]Piece, len(recs)),
		bySignature: make(map[string]ID, len(recs)),
		placements:  make(map[ID][]Placement, len(recs)),
	}
	for _, r := range recs {
		p, err := r.toPiece()
		if err != nil {
			return nil, err
		}
		if _, ok := c.pieces[p.id]; ok {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, p.id)
		}
		c.pieces[p.id] = p
		c.ids = append(c.ids, p.id)
		if _, ok := c.bySignature[p.signature]; !ok {
			c.bySignature[p.signature] = p.id
		}
		c.placements[p.id] = precompute(p)
	}
	slices.Sort(c.ids)
	return c, nil
}

func (r Record) toPiece() (Piece, error) {
	id := ID(r.ID)
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: piece %d: %s", ErrInvalidCatalog, r.ID, fmt.Sprintf(format, args...))
	}
	if id < MinID || id > MaxID {
		return Piece{}, bad("id out of range [%d, %d]", MinID, MaxID)
	}
	if r.W < 1 || r.H < 1 || r.W > bitboard.Dim || r.H > bitboard.Dim {
		return Piece{}, bad("bad bounding box %dx%d", r.W, r.H)
	}
	if len(r.Cells) == 0 {
		return Piece{}, bad("no cells")
	}
	cells := make([]Cell, 0, len(r.Cells))
	seen := map[Cell]bool{}
	maxX, maxY := 0, 0
	minX, minY := r.W, r.H
	for _, rc := range r.Cells {
		if len(rc) != 2 {
			return Piece{}, bad("cell %v is not an [dx, dy] pair", rc)
		}
		cell := Cell{X: rc[0], Y: rc[1]}
		if cell.X < 0 || cell.Y < 0 || cell.X >= r.W || cell.Y >= r.H {
			return Piece{}, bad("cell %v outside %dx%d box", rc, r.W, r.H)
		}
		if seen[cell] {
			return Piece{}, bad("duplicate cell %v", rc)
		}
		seen[cell] = true
		minX, minY = min(minX, cell.X), min(minY, cell.Y)
		maxX, maxY = max(maxX, cell.X), max(maxY, cell.Y)
		cells = append(cells, cell)
	}
	if minX != 0 || minY != 0 || maxX != r.W-1 || maxY != r.H-1 {
		return Piece{}, bad("bounding box %dx%d is not tight", r.W, r.H)
	}
	p := newPiece(id, r.Name, r.W, r.H, cells)
	if r.Hash != "" && r.Hash != p.signature {
		return Piece{}, bad("hash %q does not match shape %q", r.Hash, p.signature)
	}
	return p, nil
}

// Len returns the number of pieces.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// IDs returns all piece ids in ascending order.
func (c *Catalog) IDs() []ID {
	return slices.Clone(c.ids)
}

// Pieces returns all pieces ordered by id.
func (c *Catalog) Pieces() []Piece {
	ps := make([]Piece, len(c.ids))
	for i, id := range c.ids {
		ps[i] = c.pieces[id]
	}
	return ps
}

func (c *Catalog) Piece(id ID) (Piece, bool) {
	p, ok := c.pieces[id]
	return p, ok
}

// MustPiece is Piece for ids known to be in the catalog.
func (c *Catalog) MustPiece(id ID) Piece {
	p, ok := c.pieces[id]
	if !ok {
		panic(fmt.Sprintf("piece %d not in catalog", id))
	}
	return p
}

// BySignature finds the piece with the given canonical shape signature.
func (c *Catalog) BySignature(sig string) (Piece, bool) {
	id, ok := c.bySignature[sig]
	if !ok {
		return Piece{}, false
	}
	return c.pieces[id], true
}

// Records converts the catalog back into source records, hashes included.
func (c *Catalog) Records() []Record {
	recs := make([]Record, 0, len(c.ids))
	for _, id := range c.ids {
		p := c.pieces[id]
		cells := make([][]int, len(p.cells))
		for i, cell := range p.cells {
			cells[i] = []int{cell.X, cell.Y}
		}
		recs = append(recs, Record{ID: int(id), Name: p.name, W: p.w, H: p.h,
			Cells: cells, Hash: p.signature})
	}
	return recs
}
