// Package logger builds the zerolog logger shared by the CLI and session.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr or a file path; empty means stderr
	TimeFormat string
	NoColor    bool
}

// New returns a logger for cfg. Table output owns stdout, so logs default to
// stderr.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("could not open log file: %w", err)
		}
		out = f
	}
	return NewWithWriter(out, cfg, level), nil
}

// NewWithWriter builds the logger on an explicit writer.
func NewWithWriter(out io.Writer, cfg Config, level zerolog.Level) zerolog.Logger {
	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}
	switch cfg.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf, NoColor: cfg.NoColor}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
