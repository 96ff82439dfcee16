// Package logging builds zerolog loggers from configuration.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/exascience/parworker/config"
)

// New returns a logger writing to stderr. See NewWithWriter.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter returns a logger writing to out, in console or JSON format.
// An unknown level falls back to info. The global zerolog level is left
// alone, so it still caps what the returned logger emits.
func NewWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if level == zerolog.Disabled {
		return zerolog.Nop()
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
