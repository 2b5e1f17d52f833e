package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigConfigDir           = "config-dir"
	ConfigCatalogPath         = "catalog-path"
	ConfigSolverMaxSolutions  = "solver-max-solutions"
	ConfigSolverThreads       = "solver-threads"
	ConfigCacheMemoryFraction = "cache-memory-fraction"
	ConfigHandSize            = "hand-size"
	ConfigAutoplayGames       = "autoplay-games"
	ConfigAutoplayMaxHands    = "autoplay-max-hands"
	ConfigAutoplayLog         = "autoplay-log"
	ConfigHistoryFile         = "history-file"
	ConfigCPUProfile          = "cpu-profile"
	ConfigMemProfile          = "mem-profile"
)

const configFileName = "config"

// Config wraps a viper instance. Settings come, in increasing priority, from
// defaults, the config file, BLOCKGRID_* environment variables and flags.
type Config struct {
	*viper.Viper
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "blockgrid")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigConfigDir, defaultConfigDir())
	v.SetDefault(ConfigCatalogPath, "")
	v.SetDefault(ConfigSolverMaxSolutions, 200)
	v.SetDefault(ConfigSolverThreads, runtime.NumCPU())
	v.SetDefault(ConfigCacheMemoryFraction, 0.001)
	v.SetDefault(ConfigHandSize, 3)
	v.SetDefault(ConfigAutoplayGames, 100)
	v.SetDefault(ConfigAutoplayMaxHands, 500)
	v.SetDefault(ConfigAutoplayLog, "/tmp/blockgrid_autoplay.yaml")
	v.SetDefault(ConfigHistoryFile, "")
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
}

// DefaultConfig returns a config holding only default values. Tests use it.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{Viper: v}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("blockgrid", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigConfigDir, defaultConfigDir(), "directory holding config.yaml")
	fs.String(ConfigCatalogPath, "", "piece catalog YAML file; empty uses the built-in catalog")
	fs.Int(ConfigSolverMaxSolutions, 200, "solutions collected by the best-of search")
	fs.Int(ConfigSolverThreads, runtime.NumCPU(), "goroutines for batch solving and autoplay")
	fs.Float64(ConfigCacheMemoryFraction, 0.001, "fraction of system memory for the solution cache")
	fs.Int(ConfigHandSize, 3, "pieces dealt per hand")
	fs.Int(ConfigAutoplayGames, 100, "games played by autoplay")
	fs.Int(ConfigAutoplayMaxHands, 500, "hands after which an autoplay game is stopped")
	fs.String(ConfigAutoplayLog, "/tmp/blockgrid_autoplay.yaml", "autoplay game log")
	fs.String(ConfigHistoryFile, "", "shell command history file")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file")
	return fs
}

// Load reads the leading --flags of args, the environment and the config
// file. It stops at the first argument that is not a flag and returns the
// rest, so a command line can follow the flags.
func (c *Config) Load(args []string) ([]string, error) {
	c.Viper = viper.New()
	setDefaults(c.Viper)

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}
	c.SetEnvPrefix("BLOCKGRID")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName(configFileName)
	c.SetConfigType("yaml")
	c.AddConfigPath(c.GetString(ConfigConfigDir))
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Debug().Str("dir", c.GetString(ConfigConfigDir)).Msg("no-config-file")
	}
	return fs.Args(), nil
}

// AdjustRelativePaths resolves data paths against basepath, usually the
// directory of the executable.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigCatalogPath)
	if p != "" && !filepath.IsAbs(p) {
		c.Set(ConfigCatalogPath, filepath.Join(basepath, p))
	}
}

// Write saves the current settings to config.yaml in the config directory.
func (c *Config) Write() error {
	dir := c.GetString(ConfigConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, configFileName+".yaml")
	if err := c.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	log.Info().Str("path", path).Msg("wrote-config")
	return nil
}

// Keys lists every known setting, for help and autocompletion.
func Keys() []string {
	var keys []string
	flagSet().VisitAll(func(f *pflag.Flag) {
		keys = append(keys, f.Name)
	})
	return keys
}
