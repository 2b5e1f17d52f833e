package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaultConfig(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigSolverMaxSolutions), 200)
	is.Equal(cfg.GetInt(ConfigHandSize), 3)
	is.Equal(cfg.GetFloat64(ConfigCacheMemoryFraction), 0.001)
	is.True(!cfg.GetBool(ConfigDebug))
}

func TestLoadFlagsAndRest(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := &Config{}
	rest, err := cfg.Load([]string{"--debug", "--config-dir", dir,
		"--solver-max-solutions", "50", "solve", "-best"})
	is.NoErr(err)
	is.Equal(rest, []string{"solve", "-best"})
	is.True(cfg.GetBool(ConfigDebug))
	is.Equal(cfg.GetInt(ConfigSolverMaxSolutions), 50)
	is.Equal(cfg.GetInt(ConfigAutoplayGames), 100)
}

func TestLoadEnvAndFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("hand-size: 2\nautoplay-games: 7\n"), 0o644)
	is.NoErr(err)
	t.Setenv("BLOCKGRID_AUTOPLAY_GAMES", "9")

	cfg := &Config{}
	rest, err := cfg.Load([]string{"--config-dir", dir})
	is.NoErr(err)
	is.Equal(len(rest), 0)
	is.Equal(cfg.GetInt(ConfigHandSize), 2)
	// environment beats the file
	is.Equal(cfg.GetInt(ConfigAutoplayGames), 9)
}

func TestLoadBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	_, err := cfg.Load([]string{"--no-such-flag"})
	is.True(err != nil)
}

func TestWriteAndReload(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := &Config{}
	_, err := cfg.Load([]string{"--config-dir", dir})
	is.NoErr(err)
	cfg.Set(ConfigSolverMaxSolutions, 25)
	is.NoErr(cfg.Write())

	again := &Config{}
	_, err = again.Load([]string{"--config-dir", dir})
	is.NoErr(err)
	is.Equal(again.GetInt(ConfigSolverMaxSolutions), 25)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.Set(ConfigCatalogPath, "data/pieces.yaml")
	cfg.AdjustRelativePaths("/opt/blockgrid")
	is.Equal(cfg.GetString(ConfigCatalogPath), "/opt/blockgrid/data/pieces.yaml")

	cfg.Set(ConfigCatalogPath, "/abs/pieces.yaml")
	cfg.AdjustRelativePaths("/opt/blockgrid")
	is.Equal(cfg.GetString(ConfigCatalogPath), "/abs/pieces.yaml")
}

func TestKeys(t *testing.T) {
	is := is.New(t)
	keys := Keys()
	is.True(len(keys) == 13)
	is.Equal(keys[0], ConfigAutoplayGames)
}
