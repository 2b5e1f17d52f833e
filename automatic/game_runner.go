// Package automatic plays the puzzle without a human: it deals random hands,
// lets the best-of solver place them, and logs every game so the solver's
// heuristic can be measured over many runs.
package automatic

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/cache"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/game"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

// TurnRecord is one dealt hand and how it was played.
type TurnRecord struct {
	Hand     []piece.ID `yaml:"hand"`
	Steps    []string   `yaml:"steps,omitempty"`
	Cleared  int        `yaml:"cleared"`
	Mobility int        `yaml:"mobility"`
	Solved   bool       `yaml:"solved"`
}

// GameRecord summarizes one autoplay game. It is written to the game log as
// a YAML document.
type GameRecord struct {
	ID           int          `yaml:"id"`
	Seed         string       `yaml:"seed,omitempty"`
	Hands        int          `yaml:"hands"`
	Placements   int          `yaml:"placements"`
	LinesCleared int          `yaml:"lines"`
	Score        int          `yaml:"score"`
	Truncated    bool         `yaml:"truncated,omitempty"`
	FinalBoard   string       `yaml:"final_board"`
	Turns        []TurnRecord `yaml:"turns,omitempty"`
}

// GameRunner plays games on its own random stream. A runner is not safe for
// concurrent use; give each goroutine its own.
type GameRunner struct {
	catalog  *piece.Catalog
	solver   *solver.Solver
	cache    *cache.SolutionCache
	rng      *frand.RNG
	seed     string
	handSize int
	maxHands int
	keepLog  bool
}

// NewGameRunner builds a runner. A nil seed draws from the process-wide
// generator; otherwise the runner's hands are a function of the seed.
func NewGameRunner(cfg *config.Config, catalog *piece.Catalog, c *cache.SolutionCache,
	seed *[32]byte) *GameRunner {

	s := solver.NewSolver(catalog)
	s.SetMaxSolutions(cfg.GetInt(config.ConfigSolverMaxSolutions))
	r := &GameRunner{
		catalog:  catalog,
		solver:   s,
		cache:    c,
		handSize: max(cfg.GetInt(config.ConfigHandSize), 1),
		maxHands: cfg.GetInt(config.ConfigAutoplayMaxHands),
		keepLog:  true,
	}
	if seed != nil {
		r.rng = frand.NewCustom(seed[:], 1024, 12)
		r.seed = encodeSeed(*seed)
	}
	return r
}

// RandomHand deals handSize pieces uniformly from the catalog.
func (r *GameRunner) RandomHand() []piece.ID {
	ids := r.catalog.IDs()
	hand := make([]piece.ID, r.handSize)
	for i := range hand {
		hand[i] = ids[r.intn(len(ids))]
	}
	return hand
}

func (r *GameRunner) intn(n int) int {
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return frand.Intn(n)
}

func (r *GameRunner) bestSolution(b bitboard.Board, ids []piece.ID, idxs []int) (solver.Solution, bool) {
	if r.cache != nil {
		return r.cache.BestSolution(r.solver, b, ids, idxs)
	}
	return r.solver.FindBestSolution(b, ids, idxs)
}

// PlayGame starts from an empty board and keeps dealing hands until one
// cannot be placed in full or maxHands is reached. Every placement goes
// through the state tree, so the returned tree holds the whole game.
func (r *GameRunner) PlayGame(id int) (GameRecord, *game.StateTree, error) {
	rec := GameRecord{ID: id, Seed: r.seed}
	tree, err := game.NewStateTree(r.catalog, bitboard.Empty, r.RandomHand())
	if err != nil {
		return rec, nil, err
	}
	for {
		cur := tree.Current()
		ids, idxs := cur.Unused()
		sol, ok := r.bestSolution(cur.Board(), ids, idxs)
		turn := TurnRecord{Hand: cur.Hand(), Solved: ok}
		if ok {
			tree, err = game.ApplySolution(tree, sol)
			if err != nil {
				return rec, nil, fmt.Errorf("game %d hand %d: %w", id, rec.Hands, err)
			}
			rec.Hands++
			rec.Placements += len(sol.Steps)
			turn.Cleared = sol.CellsCleared()
			turn.Mobility = sol.Mobility
			for _, st := range sol.Steps {
				turn.Steps = append(turn.Steps, st.String())
			}
		}
		if r.keepLog {
			rec.Turns = append(rec.Turns, turn)
		}
		if !ok {
			break
		}
		if r.maxHands > 0 && rec.Hands >= r.maxHands {
			rec.Truncated = true
			break
		}
		tree, err = tree.ApplySetHand(r.RandomHand())
		if err != nil {
			return rec, nil, err
		}
	}
	st, err := tree.Stats(tree.CurrentID())
	if err != nil {
		return rec, nil, err
	}
	rec.LinesCleared = st.LinesCleared
	rec.Score = st.CellsCleared
	rec.FinalBoard = tree.Current().Board().String()
	log.Debug().Int("game", id).Int("hands", rec.Hands).Int("score", rec.Score).
		Bool("truncated", rec.Truncated).Msg("autoplay-game-over")
	return rec, tree, nil
}
