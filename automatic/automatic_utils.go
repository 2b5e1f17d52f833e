package automatic

// Batch autoplay. Games are independent, so they run in parallel; one
// goroutine owns the log file.

import (
	"context"
	"errors"
	"expvar"
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockgrid/cache"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/piece"
)

var (
	GamesPlayed *expvar.Int
	IsPlaying   *expvar.Int
)

func init() {
	GamesPlayed = expvar.NewInt("autoplayGamesPlayed")
	IsPlaying = expvar.NewInt("autoplayIsPlaying")
}

var running atomic.Bool

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

// Options controls a batch of autoplay games. Zero values fall back to the
// config.
type Options struct {
	Games   int
	Threads int
	// LogFile receives one YAML document per game. Empty disables logging.
	LogFile string
	// Seeds, when non-empty, seeds game i with Seeds[i % len(Seeds)].
	Seeds [][32]byte
}

// PlayGames plays a batch of games and returns their records in game order.
// Cancelling ctx stops games that have not started.
func PlayGames(ctx context.Context, cfg *config.Config, catalog *piece.Catalog,
	c *cache.SolutionCache, opts Options) ([]GameRecord, error) {

	if !running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	defer running.Store(false)
	IsPlaying.Set(1)
	defer IsPlaying.Set(0)

	if opts.Games <= 0 {
		opts.Games = cfg.GetInt(config.ConfigAutoplayGames)
	}
	if opts.Threads <= 0 {
		opts.Threads = max(cfg.GetInt(config.ConfigSolverThreads), 1)
	}
	log.Info().Int("games", opts.Games).Int("threads", opts.Threads).
		Str("log", opts.LogFile).Msg("autoplay-starting")

	var out io.WriteCloser
	if opts.LogFile != "" {
		f, err := os.Create(opts.LogFile)
		if err != nil {
			return nil, err
		}
		out = f
	}

	records := make([]GameRecord, opts.Games)
	logChan := make(chan GameRecord, 100)
	logDone := make(chan error, 1)
	go func() {
		logDone <- writeLog(out, logChan)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Threads)
	for i := 0; i < opts.Games; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		var seed *[32]byte
		if len(opts.Seeds) > 0 {
			seed = &opts.Seeds[i%len(opts.Seeds)]
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := NewGameRunner(cfg, catalog, c, seed)
			rec, _, err := r.PlayGame(i)
			if err != nil {
				return err
			}
			records[i] = rec
			logChan <- rec
			GamesPlayed.Add(1)
			n := GamesPlayed.Value()
			if n%1000 == 0 {
				log.Info().Int64("played", n).Msg("autoplay-progress")
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	close(logChan)
	if lerr := <-logDone; lerr != nil && err == nil {
		err = lerr
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", opts.Games).Msg("autoplay-finished")
	return records, nil
}

// writeLog drains records into w as a YAML stream and closes w. A nil w only
// drains.
func writeLog(w io.WriteCloser, records <-chan GameRecord) error {
	if w == nil {
		for range records {
		}
		return nil
	}
	enc := yaml.NewEncoder(w)
	var err error
	for rec := range records {
		if err != nil {
			continue
		}
		err = enc.Encode(rec)
	}
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
