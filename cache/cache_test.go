package cache

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func pos(k uint64) Position {
	return Position{Board: bitboard.Board(k), PieceIDs: []piece.ID{1}, HandIdxs: []int{0}}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	is := is.New(t)
	p := Position{bitboard.Empty, []piece.ID{1, 2}, []int{0, 1}}
	k := p.Key()
	is.Equal(k, Position{bitboard.Empty, []piece.ID{1, 2}, []int{0, 1}}.Key())
	is.True(k != Position{bitboard.Bit(0, 0), []piece.ID{1, 2}, []int{0, 1}}.Key())
	is.True(k != Position{bitboard.Empty, []piece.ID{2, 1}, []int{0, 1}}.Key())
	is.True(k != Position{bitboard.Empty, []piece.ID{1, 2}, []int{1, 2}}.Key())
	is.True(Position{bitboard.Empty, []piece.ID{1, 2}, []int{0}}.encode() !=
		Position{bitboard.Empty, []piece.ID{1}, []int{2, 0}}.encode())
}

func TestGetLoadsOnce(t *testing.T) {
	is := is.New(t)
	c := New(0)
	is.Equal(c.Cap(), minCapacity)
	calls := 0
	load := func() (solver.Solution, bool) {
		calls++
		return solver.Solution{Mobility: 7}, true
	}
	for i := 0; i < 3; i++ {
		sol, ok := c.Get(pos(42), load)
		is.True(ok)
		is.Equal(sol.Mobility, 7)
	}
	is.Equal(calls, 1)
	hits, misses, _ := c.Stats()
	is.Equal(hits, 2)
	is.Equal(misses, 1)

	// unsolved results are cached too
	_, ok := c.Get(pos(43), func() (solver.Solution, bool) { return solver.Solution{}, false })
	is.True(!ok)
	_, ok = c.Get(pos(43), load)
	is.True(!ok)
	is.Equal(calls, 1)
}

func TestClockEviction(t *testing.T) {
	is := is.New(t)
	c := New(minCapacity)
	fill := func(k uint64) func() (solver.Solution, bool) {
		return func() (solver.Solution, bool) { return solver.Solution{Mobility: int(k)}, true }
	}
	for k := uint64(0); k < minCapacity; k++ {
		c.Get(pos(k), fill(k))
	}
	is.Equal(c.Len(), minCapacity)
	// touch position 0 so it gets a second chance
	c.Get(pos(0), fill(0))

	c.Get(pos(1000), fill(1000))
	is.Equal(c.Len(), minCapacity)
	_, _, evicted := c.Stats()
	is.Equal(evicted, 1)

	_, ok := c.index[pos(0).Key()]
	is.True(ok)
	_, ok = c.index[pos(1).Key()]
	is.True(!ok)

	c.Reset()
	is.Equal(c.Len(), 0)
	hits, misses, evicted := c.Stats()
	is.Equal(hits+misses+evicted, 0)
}

func TestHashCollisionIsAMiss(t *testing.T) {
	is := is.New(t)
	c := New(0)
	c.hash = func(string) uint64 { return 7 }
	fill := func(k int) func() (solver.Solution, bool) {
		return func() (solver.Solution, bool) { return solver.Solution{Mobility: k}, true }
	}
	sol, _ := c.Get(pos(1), fill(1))
	is.Equal(sol.Mobility, 1)
	sol, _ = c.Get(pos(2), fill(2))
	is.Equal(sol.Mobility, 2)
	is.Equal(c.Len(), 1)
	sol, _ = c.Get(pos(2), fill(-1))
	is.Equal(sol.Mobility, 2)
	// position 1 lost its slot and is searched again
	sol, _ = c.Get(pos(1), fill(3))
	is.Equal(sol.Mobility, 3)
	hits, misses, _ := c.Stats()
	is.Equal(hits, 1)
	is.Equal(misses, 3)
}

func TestLoadsOfDistinctPositionsOverlap(t *testing.T) {
	is := is.New(t)
	c := New(0)
	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	go func() {
		started.Wait()
		close(release)
	}()
	var overlapped atomic.Int32
	var wg sync.WaitGroup
	for k := 0; k < n; k++ {
		k := k
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(pos(uint64(k)), func() (solver.Solution, bool) {
				started.Done()
				// every load must be running at once to get past here
				select {
				case <-release:
					overlapped.Add(1)
				case <-time.After(5 * time.Second):
				}
				return solver.Solution{Mobility: k}, true
			})
		}()
	}
	wg.Wait()
	is.Equal(overlapped.Load(), int32(n))
	is.Equal(c.Len(), n)
}

func TestConcurrentLoadsOfOnePositionShareASearch(t *testing.T) {
	is := is.New(t)
	c := New(0)
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	load := func() (solver.Solution, bool) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return solver.Solution{Mobility: 5}, true
	}
	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sol, _ := c.Get(pos(9), load)
			results[i] = sol.Mobility
		}()
	}
	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	is.Equal(calls.Load(), int32(1))
	for _, m := range results {
		is.Equal(m, 5)
	}
}

func TestBestSolution(t *testing.T) {
	is := is.New(t)
	c := NewFromMemory(0.0001)
	is.True(c.Cap() >= minCapacity)
	s := solver.NewSolver(piece.Default())
	b := bitboard.RowMask[0].Clear(7, 0)
	want, ok := s.FindBestSolution(b, []piece.ID{1}, []int{0})
	is.True(ok)
	got, ok := c.BestSolution(s, b, []piece.ID{1}, []int{0})
	is.True(ok)
	is.Equal(got, want)
	got, _ = c.BestSolution(s, b, []piece.ID{1}, []int{0})
	is.Equal(got, want)
	hits, _, _ := c.Stats()
	is.Equal(hits, 1)
}
