package source

import (
	"time"

	"github.com/okian/fightelo/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers sets how many files are decoded concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		l.logger = log
	}
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   logger.Logger
}

// WithDebounce sets how long Watch waits for writes to settle before
// calling back. Editors and scrapers often write a file in several steps.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithWatchLogger sets the logger used by Watch.
func WithWatchLogger(log logger.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = log
	}
}
