// Package jlog builds the zerolog loggers threaded through every
// component, rather than relying on zerolog's global logger: each
// component receives its own child logger (via With()) naming the
// component, so log lines are attributable without a shared mutable
// global.
package jlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the root logger's output and verbosity.
type Config struct {
	// Level is parsed with zerolog.ParseLevel; empty means "info".
	Level string
	// Pretty switches to zerolog's console writer, for local runs;
	// false emits one JSON object per line, for the op journal's
	// neighbor log stream.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds the root logger every component's logger is derived from.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if l, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = l
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with name, for a specific
// package/subsystem (e.g. "interp", "worker", "fifo").
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
