package main

// analyze checks a file of positions for solvability. The file is a YAML
// list of problems:
//
//	- board: "########/......../......../......../......../......../......../........"
//	  pieces: [8, 11, 14]

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

type problemRecord struct {
	Board  string     `yaml:"board"`
	Pieces []piece.ID `yaml:"pieces"`
}

func loadProblems(path string) ([]solver.Problem, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs []problemRecord
	if err := yaml.Unmarshal(dat, &recs); err != nil {
		return nil, err
	}
	problems := make([]solver.Problem, len(recs))
	for i, r := range recs {
		b, err := bitboard.Parse(r.Board)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i, err)
		}
		problems[i] = solver.Problem{Board: b, PieceIDs: r.Pieces}
	}
	return problems, nil
}

func main() {
	// Determine the directory of the executable. We will use this
	// directory to find the data files if an absolute path is not
	// provided for these!
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	rest, err := cfg.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	cfg.AdjustRelativePaths(exPath)

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [--flags] <problems.yaml>")
		os.Exit(2)
	}

	catalog := piece.Default()
	if p := cfg.GetString(config.ConfigCatalogPath); p != "" {
		catalog, err = piece.LoadFile(p)
		if err != nil {
			log.Fatal().Err(err).Msg("loading-catalog")
		}
	}
	problems, err := loadProblems(rest[0])
	if err != nil {
		log.Fatal().Err(err).Msg("loading-problems")
	}
	for i, p := range problems {
		for _, id := range p.PieceIDs {
			if _, ok := catalog.Piece(id); !ok {
				log.Fatal().Int("problem", i).Int("piece", int(id)).Msg("unknown-piece")
			}
		}
	}

	s := solver.NewSolver(catalog)
	ctx := log.Logger.WithContext(context.Background())
	results, err := s.SolveBatch(ctx, problems, cfg.GetInt(config.ConfigSolverThreads))
	if err != nil {
		log.Fatal().Err(err).Msg("solving")
	}
	solved := 0
	for i, r := range results {
		if !r.Solved {
			fmt.Printf("%d: no solution\n", i)
			continue
		}
		solved++
		fmt.Printf("%d: %v\n", i, r.Solution)
	}
	fmt.Printf("%d of %d solvable\n", solved, len(results))
}
