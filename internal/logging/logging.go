// Package logging builds the CLI logger.
//
// Records always go to a stderr-style writer in the configured format; when
// a log file is configured every record is also written to it as JSON.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/vango-dev/reconciler/internal/errors"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is text or json for the terminal handler.
	Format string

	// File, when set, receives JSON records in addition to the terminal.
	File string

	// Writer is the terminal writer. Default: os.Stderr.
	Writer io.Writer
}

// Logger is a configured logger together with its level control and the
// resources it holds open.
type Logger struct {
	*slog.Logger

	// Level can be changed at runtime.
	Level *slog.LevelVar

	closers []io.Closer
}

// New creates a logger from opts.
func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	if err := SetLevel(level, opts.Level); err != nil {
		return nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handlers []slog.Handler
	if opts.Format == "json" {
		handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(w, handlerOpts))
	}

	l := &Logger{Level: level}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.New(errors.CodeInvalidConfigValue).
				WithDetail("cannot open log file " + opts.File).
				Wrap(err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, handlerOpts))
		l.closers = append(l.closers, f)
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.closers = nil
	return first
}

// SetLevel parses name and stores it in level. An empty name means info.
func SetLevel(level *slog.LevelVar, name string) error {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "", "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetailf("unknown log level %q", name)
	}
	return nil
}
