package rating

import "github.com/okian/fightelo/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDrawPeakTracking makes draws raise peak ratings the way decisive fights
// do. Off by default: draws only move current ratings.
func WithDrawPeakTracking(enabled bool) Option {
	return func(e *Engine) {
		e.drawUpdatesPeak = enabled
	}
}
