package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/shell"
)

var (
	GitVersion string
)

//go:embed blockgrid.txt
var banner string

// newLogger builds the console logger the shell writes to.
func newLogger(w io.Writer, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// startCPUProfile returns the function that stops the profile, or a no-op
// when path is empty.
func startCPUProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	memstats := &runtime.MemStats{}
	runtime.ReadMemStats(memstats)
	log.Info().Uint64("heap-alloc", memstats.HeapAlloc).Uint32("num-gc", memstats.NumGC).
		Msg("memory-stats")
	return pprof.WriteHeapProfile(f)
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)
	fmt.Println(banner)
	fmt.Println(GitVersion)

	cfg := &config.Config{}
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	// relative data paths resolve against the executable's directory
	cfg.AdjustRelativePaths(exPath)

	debug := cfg.GetBool(config.ConfigDebug)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := newLogger(os.Stderr, debug)
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	log.Debug().Str("executable", exPath).Interface("config", cfg.AllSettings()).Msg("loaded-config")

	stopProfile, err := startCPUProfile(cfg.GetString(config.ConfigCPUProfile))
	if err != nil {
		log.Fatal().Err(err).Msg("cpu-profile")
	}

	sc := shell.NewShellController(cfg, exPath, GitVersion)
	// the REPL and an interrupt both end the session by sending on quit
	quit := make(chan os.Signal, 1)
	if line := strings.TrimSpace(strings.Join(args, " ")); line != "" {
		sc.Execute(quit, line)
	} else {
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go sc.Loop(quit)
		<-quit
		signal.Stop(quit)
	}

	stopProfile()
	if p := cfg.GetString(config.ConfigMemProfile); p != "" {
		if err := writeMemProfile(p); err != nil {
			log.Error().Err(err).Msg("mem-profile")
		} else {
			log.Info().Str("path", p).Msg("wrote-memory-profile")
		}
	}
	sc.Cleanup()
	log.Debug().Msg("shell-exiting")
}
