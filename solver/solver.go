// Package solver searches for placement sequences that fit every unused
// piece of a hand onto a board. Search is exhaustive over piece orderings
// and anchors, depth first, in the placement table's row-major order.
package solver

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/mechanics"
	"github.com/domino14/blockgrid/piece"
)

// DefaultMaxSolutions caps the number of complete sequences the best-of
// search collects before ranking them.
const DefaultMaxSolutions = 200

// Step is one placement in a solution.
type Step struct {
	PieceID     piece.ID
	HandIndex   int
	X           int
	Y           int
	ClearedRows []int
	ClearedCols []int
}

func (s Step) String() string {
	return fmt.Sprintf("%d[%d] @%d,%d r%v c%v", s.PieceID, s.HandIndex, s.X, s.Y,
		s.ClearedRows, s.ClearedCols)
}

// Solution is an ordered list of steps together with the board they leave
// behind and that board's mobility.
type Solution struct {
	Steps    []Step
	Board    bitboard.Board
	Mobility int
}

// CellsCleared totals the cells removed over all steps.
func (s Solution) CellsCleared() int {
	return lo.SumBy(s.Steps, func(st Step) int {
		r, c := len(st.ClearedRows), len(st.ClearedCols)
		return bitboard.Dim*r + bitboard.Dim*c - r*c
	})
}

func (s Solution) String() string {
	return fmt.Sprintf("%v mobility=%d", s.Steps, s.Mobility)
}

// Solver holds the catalog used for placement lookup and mobility, and the
// best-of cap. A Solver keeps no per-search state, so one value can serve
// concurrent searches.
type Solver struct {
	catalog      *piece.Catalog
	maxSolutions int
}

func NewSolver(c *piece.Catalog) *Solver {
	return &Solver{catalog: c, maxSolutions: DefaultMaxSolutions}
}

// SetMaxSolutions changes the best-of cap. Values below 1 are treated as 1.
func (s *Solver) SetMaxSolutions(n int) {
	s.maxSolutions = max(n, 1)
}

func (s *Solver) MaxSolutions() int { return s.maxSolutions }

func (s *Solver) Catalog() *piece.Catalog { return s.catalog }

// Orderings returns all k! permutations of 0..k-1 in lexicographic order.
func Orderings(k int) [][]int {
	if k <= 0 {
		return nil
	}
	perms := combin.Permutations(k, k)
	slices.SortFunc(perms, slices.Compare[[]int])
	return perms
}

// FromHand extracts the unused piece ids of a hand along with their slot
// indices.
func FromHand(hand []piece.ID, used []bool) ([]piece.ID, []int) {
	var ids []piece.ID
	var idxs []int
	for i, id := range hand {
		if i < len(used) && used[i] {
			continue
		}
		ids = append(ids, id)
		idxs = append(idxs, i)
	}
	return ids, idxs
}

// SolveTriple is SolvePartial for a full three-piece hand. Any other count
// has no solution.
func (s *Solver) SolveTriple(b bitboard.Board, ids []piece.ID, handIdxs []int) (Solution, bool) {
	if len(ids) != 3 {
		return Solution{}, false
	}
	return s.SolvePartial(b, ids, handIdxs)
}

// SolvePartial returns the first complete placement sequence found for the
// given pieces, trying orderings lexicographically. handIdxs[i] is the hand
// slot of ids[i] and is carried into the steps.
func (s *Solver) SolvePartial(b bitboard.Board, ids []piece.ID, handIdxs []int) (Solution, bool) {
	var found Solution
	ok := false
	s.search(b, ids, handIdxs, func(sol Solution) bool {
		found, ok = sol, true
		return false
	})
	if ok {
		found.Mobility = mechanics.Mobility(s.catalog, found.Board)
	}
	log.Debug().Int("pieces", len(ids)).Bool("solved", ok).Msg("solve-first-fit")
	return found, ok
}

// FindBestSolution collects complete sequences in search order until the cap
// is reached and returns the one whose final board has the highest mobility.
// The earliest collected solution wins ties.
func (s *Solver) FindBestSolution(b bitboard.Board, ids []piece.ID, handIdxs []int) (Solution, bool) {
	var best Solution
	collected := 0
	s.search(b, ids, handIdxs, func(sol Solution) bool {
		sol.Mobility = mechanics.Mobility(s.catalog, sol.Board)
		if collected == 0 || sol.Mobility > best.Mobility {
			best = sol
		}
		collected++
		if collected >= s.maxSolutions {
			log.Debug().Int("cap", s.maxSolutions).Msg("solver-cap-reached")
			return false
		}
		return true
	})
	log.Debug().Int("pieces", len(ids)).Int("collected", collected).
		Int("mobility", best.Mobility).Msg("solve-best-of")
	return best, collected > 0
}

// search runs the depth-first enumeration over every ordering and calls emit
// for each complete sequence. It stops as soon as emit returns false.
func (s *Solver) search(b bitboard.Board, ids []piece.ID, handIdxs []int,
	emit func(Solution) bool) {

	if len(ids) == 0 || len(ids) != len(handIdxs) {
		return
	}
	for _, id := range ids {
		if _, ok := s.catalog.Piece(id); !ok {
			log.Debug().Int("piece", int(id)).Msg("solver-unknown-piece")
			return
		}
	}
	steps := make([]Step, len(ids))
	for _, order := range Orderings(len(ids)) {
		if !s.dfs(b, ids, handIdxs, order, 0, steps, emit) {
			return
		}
	}
}

// dfs places order[depth] at each legal anchor in turn. It returns false when
// the search should stop entirely.
func (s *Solver) dfs(b bitboard.Board, ids []piece.ID, handIdxs []int, order []int,
	depth int, steps []Step, emit func(Solution) bool) bool {

	if depth == len(order) {
		return emit(Solution{Steps: slices.Clone(steps), Board: b})
	}
	which := order[depth]
	cont := true
	s.catalog.EachLegal(b, ids[which], func(pl piece.Placement) bool {
		res := mechanics.Place(b, pl.Mask)
		steps[depth] = Step{
			PieceID:     pl.PieceID,
			HandIndex:   handIdxs[which],
			X:           pl.X,
			Y:           pl.Y,
			ClearedRows: res.ClearedRows,
			ClearedCols: res.ClearedCols,
		}
		cont = s.dfs(res.After, ids, handIdxs, order, depth+1, steps, emit)
		return cont
	})
	return cont
}
