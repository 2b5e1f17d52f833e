package cache

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

// The cache memoizes best-of solver results for a board and a set of unused
// pieces. The shell and autoplay ask for the same position repeatedly (hint,
// then apply; undo, then solve again), and a best-of search is the most
// expensive thing either does.

// entrySize is a rough per-entry footprint used to turn a memory budget into
// an entry count.
const entrySize = 256

const minCapacity = 64

// Position is one solver query: a board with the ordered piece ids and the
// hand slots they came from.
type Position struct {
	Board    bitboard.Board
	PieceIDs []piece.ID
	HandIdxs []int
}

// encode lays the position out as bytes. Two positions are equal iff their
// encodings are.
func (p Position) encode() string {
	buf := make([]byte, 0, 8+2*len(p.PieceIDs)+len(p.HandIdxs)+1)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Board))
	for _, id := range p.PieceIDs {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
	}
	// separator so ([1 2], [0]) and ([1], [2 0]) never collide on layout
	buf = append(buf, 0xff)
	for _, i := range p.HandIdxs {
		buf = append(buf, byte(i))
	}
	return string(buf)
}

func hashKey(enc string) uint64 {
	return xxhash.Sum64([]byte(enc))
}

// Key hashes the position.
func (p Position) Key() uint64 {
	return hashKey(p.encode())
}

type entry struct {
	key      uint64
	position string
	solution solver.Solution
	solved   bool
	ref      bool
}

type loadFunc func() (solver.Solution, bool)

type result struct {
	solution solver.Solution
	solved   bool
}

// SolutionCache is a fixed-capacity map with clock (second chance)
// eviction. It is safe for concurrent use. Loads run outside the lock, and
// concurrent loads of one position share a single search.
type SolutionCache struct {
	sync.Mutex
	slots   []entry
	index   map[uint64]int
	hand    int
	hits    int
	misses  int
	evicted int

	group singleflight.Group
	hash  func(string) uint64
}

func New(capacity int) *SolutionCache {
	capacity = max(capacity, minCapacity)
	return &SolutionCache{
		slots: make([]entry, 0, capacity),
		index: make(map[uint64]int, capacity),
		hash:  hashKey,
	}
}

// NewFromMemory sizes the cache to a fraction of total system memory.
func NewFromMemory(fraction float64) *SolutionCache {
	total := memory.TotalMemory()
	capacity := int(float64(total) * fraction / entrySize)
	log.Debug().Uint64("total-mem", total).Float64("fraction", fraction).
		Int("capacity", max(capacity, minCapacity)).Msg("solution-cache-size")
	return New(capacity)
}

func (c *SolutionCache) Cap() int { return cap(c.slots) }

func (c *SolutionCache) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.slots)
}

// lookup must be called with the lock held. A slot whose hash matches but
// whose position differs is a miss.
func (c *SolutionCache) lookup(key uint64, enc string) (*entry, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	if c.slots[i].position != enc {
		log.Debug().Uint64("key", key).Msg("solution-cache-collision")
		return nil, false
	}
	return &c.slots[i], true
}

// Get returns the cached result for pos, or calls load, stores its result
// and returns it.
func (c *SolutionCache) Get(pos Position, load loadFunc) (solver.Solution, bool) {
	enc := pos.encode()
	key := c.hash(enc)

	c.Lock()
	if e, ok := c.lookup(key, enc); ok {
		c.hits++
		e.ref = true
		sol, solved := e.solution, e.solved
		c.Unlock()
		return sol, solved
	}
	c.misses++
	c.Unlock()

	v, _, _ := c.group.Do(enc, func() (any, error) {
		// a flight for this position may have finished since the miss above
		c.Lock()
		if e, ok := c.lookup(key, enc); ok {
			r := result{e.solution, e.solved}
			c.Unlock()
			return r, nil
		}
		c.Unlock()

		sol, solved := load()

		c.Lock()
		c.insert(entry{key: key, position: enc, solution: sol, solved: solved})
		c.Unlock()
		return result{sol, solved}, nil
	})
	r := v.(result)
	return r.solution, r.solved
}

// insert must be called with the lock held.
func (c *SolutionCache) insert(e entry) {
	if i, ok := c.index[e.key]; ok {
		// hash collision: the newer position takes the slot
		e.ref = c.slots[i].ref
		c.slots[i] = e
		return
	}
	if len(c.slots) < cap(c.slots) {
		c.index[e.key] = len(c.slots)
		c.slots = append(c.slots, e)
		return
	}
	for c.slots[c.hand].ref {
		c.slots[c.hand].ref = false
		c.hand = (c.hand + 1) % len(c.slots)
	}
	delete(c.index, c.slots[c.hand].key)
	c.slots[c.hand] = e
	c.index[e.key] = c.hand
	c.hand = (c.hand + 1) % len(c.slots)
	c.evicted++
}

// Stats returns hit, miss and eviction counts.
func (c *SolutionCache) Stats() (hits, misses, evicted int) {
	c.Lock()
	defer c.Unlock()
	return c.hits, c.misses, c.evicted
}

// Reset drops every entry and zeroes the counters.
func (c *SolutionCache) Reset() {
	c.Lock()
	defer c.Unlock()
	c.slots = c.slots[:0]
	clear(c.index)
	c.hand = 0
	c.hits, c.misses, c.evicted = 0, 0, 0
}

// BestSolution is Solver.FindBestSolution through the cache. Results depend
// on the solver's cap, so one cache should serve one solver configuration.
func (c *SolutionCache) BestSolution(s *solver.Solver, b bitboard.Board, ids []piece.ID,
	handIdxs []int) (solver.Solution, bool) {

	pos := Position{Board: b, PieceIDs: ids, HandIdxs: handIdxs}
	return c.Get(pos, func() (solver.Solution, bool) {
		return s.FindBestSolution(b, ids, handIdxs)
	})
}
