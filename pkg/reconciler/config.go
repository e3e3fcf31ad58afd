package reconciler

import (
	"log/slog"

	"github.com/vango-dev/reconciler/pkg/lane"
)

// DefaultTracerName is the OpenTelemetry tracer used when none is configured.
const DefaultTracerName = "github.com/vango-dev/reconciler"

// RenderError describes a render that failed and was abandoned.
type RenderError struct {
	Root *FiberRoot
	Lane lane.Lane
	Err  error
}

// CommitInfo summarises one commit.
type CommitInfo struct {
	Root      *FiberRoot
	Lane      lane.Lane
	Fibers    int // fibers rendered for this commit
	Mutations int // host mutations applied
	Deletions int // subtrees deleted
}

// Config holds configuration for a Reconciler.
type Config struct {
	// Logger receives development warnings and render errors.
	// Default: slog.Default().
	Logger *slog.Logger

	// DebugMode enables development checks: duplicate key warnings and
	// fatal unknown fiber tags.
	// Default: false.
	DebugMode bool

	// Metrics receives render and commit counters. Nil disables metrics.
	Metrics *Metrics

	// TracerName is the OpenTelemetry tracer used for render and commit
	// spans.
	// Default: DefaultTracerName.
	TracerName string

	// OnRenderError is called after a render failed. The lane stays
	// pending until the root is retried or updated again.
	OnRenderError func(RenderError)

	// OnCommit is called after each commit, before passive effects run.
	OnCommit func(CommitInfo)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Logger:     slog.Default(),
		TracerName: DefaultTracerName,
	}
}

// Clone returns a copy of the config.
func (c Config) Clone() Config {
	return c
}

// Option configures a Reconciler.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithDebugMode enables development checks.
func WithDebugMode(debug bool) Option {
	return func(c *Config) {
		c.DebugMode = debug
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithOnRenderError sets the render error callback.
func WithOnRenderError(fn func(RenderError)) Option {
	return func(c *Config) {
		c.OnRenderError = fn
	}
}

// WithOnCommit sets the commit callback.
func WithOnCommit(fn func(CommitInfo)) Option {
	return func(c *Config) {
		c.OnCommit = fn
	}
}
