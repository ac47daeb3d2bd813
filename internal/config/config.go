// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FightsFiles lists the JSON fight sources, processed in order.
	FightsFiles []string `koanf:"fights_files"`

	// LoaderWorkers bounds how many source files are decoded at once.
	LoaderWorkers int `koanf:"loader_workers"`

	// ExportCSV, when set, is written with the ranking after every rebuild.
	ExportCSV string `koanf:"export_csv"`

	// DedupeFights drops repeated identical fight records before processing.
	DedupeFights bool `koanf:"dedupe_fights"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DrawUpdatesPeak lets draws raise a competitor's peak rating.
	DrawUpdatesPeak bool `koanf:"draw_updates_peak"`

	// WatchFights rebuilds the ranking when a source file changes.
	WatchFights bool `koanf:"watch_fights"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		FightsFiles:         []string{"fights.json"},
		LoaderWorkers:       runtime.NumCPU(),
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.FightsFiles) == 0:
		return fmt.Errorf("%w: fights_files must not be empty", ErrInvalidConfig)
	case c.LoaderWorkers < 1:
		return fmt.Errorf("%w: loader_workers must be positive, got %d", ErrInvalidConfig, c.LoaderWorkers)
	case c.DedupeFights && c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive when dedupe_fights is set", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for i, path := range c.FightsFiles {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%w: fights_files[%d] is blank", ErrInvalidConfig, i)
		}
	}
	return nil
}
