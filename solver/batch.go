package solver

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/piece"
)

// Problem is a candidate board and set of pieces, typically produced by
// screen recognition, that should be checked for solvability.
type Problem struct {
	Board    bitboard.Board
	PieceIDs []piece.ID
	HandIdxs []int
}

// Result pairs a problem's first-fit solution with whether one exists.
type Result struct {
	Solution Solution
	Solved   bool
}

// SolveBatch runs a first-fit search for every problem, using up to threads
// goroutines (runtime.NumCPU when threads < 1). Results are returned in input
// order. Cancelling ctx stops problems that have not started yet; a search
// that has started always runs to completion.
func (s *Solver) SolveBatch(ctx context.Context, problems []Problem, threads int) ([]Result, error) {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	logger := zerolog.Ctx(ctx)
	results := make([]Result, len(problems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := range problems {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := problems[i]
			idxs := p.HandIdxs
			if idxs == nil {
				idxs = make([]int, len(p.PieceIDs))
				for j := range idxs {
					idxs[j] = j
				}
			}
			sol, ok := s.SolvePartial(p.Board, p.PieceIDs, idxs)
			results[i] = Result{Solution: sol, Solved: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug().Int("problems", len(problems)).Int("threads", threads).Msg("solve-batch-done")
	return results, nil
}
