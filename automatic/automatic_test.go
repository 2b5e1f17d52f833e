package automatic

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/blockgrid/cache"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/piece"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig(maxHands int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigAutoplayMaxHands, maxHands)
	cfg.Set(config.ConfigSolverMaxSolutions, 20)
	return cfg
}

func TestSeededRunnerIsDeterministic(t *testing.T) {
	is := is.New(t)
	seed := GenerateSeeds(1)[0]
	cfg := testConfig(4)
	a := NewGameRunner(cfg, piece.Default(), nil, &seed)
	b := NewGameRunner(cfg, piece.Default(), nil, &seed)
	for i := 0; i < 5; i++ {
		h := a.RandomHand()
		is.Equal(len(h), 3)
		is.Equal(h, b.RandomHand())
	}

	a = NewGameRunner(cfg, piece.Default(), nil, &seed)
	b = NewGameRunner(cfg, piece.Default(), cache.New(0), &seed)
	ra, _, err := a.PlayGame(1)
	is.NoErr(err)
	rb, _, err := b.PlayGame(1)
	is.NoErr(err)
	assert.Equal(t, ra, rb)
	is.Equal(ra.Seed, encodeSeed(seed))
}

func TestPlayGameRespectsHandLimit(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(testConfig(2), piece.Default(), nil, nil)
	rec, tree, err := r.PlayGame(7)
	is.NoErr(err)
	is.Equal(rec.ID, 7)
	is.True(rec.Hands <= 2)
	if rec.Truncated {
		is.Equal(rec.Hands, 2)
		is.Equal(rec.Placements, 6)
	}
	st, err := tree.Stats(tree.CurrentID())
	is.NoErr(err)
	is.Equal(st.Placements, rec.Placements)
	is.Equal(st.CellsCleared, rec.Score)
	is.Equal(tree.Current().Board().String(), rec.FinalBoard)
}

func TestPlayGameEndsOnUnsolvableHand(t *testing.T) {
	is := is.New(t)
	// 3x3 squares never complete a line, and only four fit on the board
	c, err := piece.New([]piece.Record{{ID: 11, W: 3, H: 3,
		Cells: [][]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}, {0, 2}, {1, 2}, {2, 2}}}})
	is.NoErr(err)
	r := NewGameRunner(testConfig(0), c, nil, nil)
	rec, _, err := r.PlayGame(0)
	is.NoErr(err)
	is.Equal(rec.Hands, 1)
	is.Equal(rec.Score, 0)
	is.True(!rec.Truncated)
	is.Equal(len(rec.Turns), 2)
	is.True(rec.Turns[0].Solved)
	is.Equal(len(rec.Turns[0].Steps), 3)
	is.True(!rec.Turns[1].Solved)
}

func TestPlayGamesWritesLog(t *testing.T) {
	is := is.New(t)
	logfile := filepath.Join(t.TempDir(), "games.yaml")
	recs, err := PlayGames(context.Background(), testConfig(2), piece.Default(), cache.New(0),
		Options{Games: 4, Threads: 2, LogFile: logfile, Seeds: GenerateSeeds(2)})
	is.NoErr(err)
	is.Equal(len(recs), 4)
	for i, rec := range recs {
		is.Equal(rec.ID, i)
	}
	// games 0 and 2 share a seed
	assert.Equal(t, recs[0].Turns, recs[2].Turns)

	f, err := os.Open(logfile)
	is.NoErr(err)
	defer f.Close()
	logged, err := ReadLog(f)
	is.NoErr(err)
	is.Equal(len(logged), 4)
	slices.SortFunc(logged, func(a, b GameRecord) int { return a.ID - b.ID })
	assert.Equal(t, recs, logged)

	summary, err := AnalyzeLogFile(logfile)
	is.NoErr(err)
	is.True(strings.HasPrefix(summary, "Games played: 4"))
}

func TestPlayGamesCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PlayGames(ctx, testConfig(1), piece.Default(), nil, Options{Games: 3, Threads: 1})
	is.True(err != nil)
	// a cancelled run releases the guard
	_, err = PlayGames(context.Background(), testConfig(1), piece.Default(), nil,
		Options{Games: 1, Threads: 1})
	is.NoErr(err)
}

func TestSummarizeEmpty(t *testing.T) {
	is := is.New(t)
	is.Equal(Summarize(nil), "No games played.\n")
	s := Summarize([]GameRecord{{Hands: 3, Score: 16}, {Hands: 5, Score: 40, Truncated: true}})
	is.True(strings.Contains(s, "Games played: 2 (1 stopped at the hand limit)"))
	is.True(strings.Contains(s, "Score histogram:"))
}

func TestSeedsRoundTrip(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "seeds.txt")
	seeds := GenerateSeeds(3)
	is.NoErr(SaveSeeds(seeds, path))
	loaded, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(loaded, seeds)

	is.NoErr(os.WriteFile(path, []byte("not-base64!\n"), 0o644))
	_, err = LoadSeeds(path)
	is.True(err != nil)
}
