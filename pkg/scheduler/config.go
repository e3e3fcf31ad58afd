package scheduler

import (
	"log/slog"
	"time"
)

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds configuration for a Loop.
type Config struct {
	// FrameInterval is the time budget of one slice before ShouldYield
	// reports true.
	// Default: 5ms.
	FrameInterval time.Duration

	// Clock is the time source.
	// Default: wall clock.
	Clock Clock

	// ShouldYield, when set, replaces the frame-budget yield check.
	ShouldYield func() bool

	// Logger receives task panics and overload warnings.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 5 * time.Millisecond,
		Clock:         realClock{},
		Logger:        slog.Default(),
	}
}

// Option configures a Loop.
type Option func(*Config)

// WithFrameInterval sets the time budget of one slice.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Config) {
		c.FrameInterval = d
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithShouldYield overrides the yield check.
func WithShouldYield(fn func() bool) Option {
	return func(c *Config) {
		c.ShouldYield = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
