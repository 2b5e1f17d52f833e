package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestNewLoggerLevels(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Debug().Msg("hidden")
	logger.Info().Int("games", 2).Msg("autoplay-starting")
	out := buf.String()
	is.True(!strings.Contains(out, "hidden"))
	is.True(strings.Contains(out, "| INFO  |"))
	is.True(strings.Contains(out, "autoplay-starting"))
	is.True(strings.Contains(out, "games:2"))

	buf.Reset()
	logger = newLogger(&buf, true)
	logger.Debug().Msg("shown")
	is.True(strings.Contains(buf.String(), "| DEBUG |"))
}

func TestProfiles(t *testing.T) {
	is := is.New(t)
	stop, err := startCPUProfile("")
	is.NoErr(err)
	stop()

	dir := t.TempDir()
	stop, err = startCPUProfile(filepath.Join(dir, "cpu.prof"))
	is.NoErr(err)
	stop()
	_, err = os.Stat(filepath.Join(dir, "cpu.prof"))
	is.NoErr(err)

	_, err = startCPUProfile(filepath.Join(dir, "missing", "cpu.prof"))
	is.True(err != nil)

	is.NoErr(writeMemProfile(filepath.Join(dir, "mem.prof")))
	_, err = os.Stat(filepath.Join(dir, "mem.prof"))
	is.NoErr(err)
}
