package pipeline

import (
	"log/slog"

	"github.com/jmylchreest/reviewsift/pkg/extractor"
	"github.com/jmylchreest/reviewsift/pkg/patterns"
)

// Config holds pipeline settings.
type Config struct {
	// Patterns is the compiled pattern table. Nil means the defaults.
	Patterns *patterns.Set

	// Strategies overrides the extraction chain. Empty means the built-in chain.
	Strategies []extractor.Strategy

	// Logger receives pipeline debug logs. Nil means the process logger.
	Logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Config)

// WithConfig uses the given pattern table.
func WithConfig(set *patterns.Set) Option {
	return func(c *Config) {
		c.Patterns = set
	}
}

// WithStrategies replaces the extraction chain.
func WithStrategies(strategies ...extractor.Strategy) Option {
	return func(c *Config) {
		c.Strategies = strategies
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
