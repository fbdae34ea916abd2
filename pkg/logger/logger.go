// Package logger builds the *slog.Logger used across charge: a pretty
// charmbracelet/log handler for the terminal, JSON for the serve log file
// and plain text otherwise. Attributes naming secrets (passwords, DSNs) are
// masked before any handler sees them.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type format int

const (
	formatText format = iota
	formatPretty
	formatJSON
)

type config struct {
	level   slog.Level
	format  format
	writers []io.Writer
	redact  []string
}

// New returns a *slog.Logger configured by opts. Without options it writes
// Info and above as text to os.Stderr.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		redact: DefaultRedactedKeys,
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer = os.Stderr
	switch len(c.writers) {
	case 0:
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var h slog.Handler
	switch c.format {
	case formatPretty:
		h = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(c.level),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	case formatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.level})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level})
	}

	return slog.New(newRedactHandler(h, c.redact))
}

// Nop returns a logger that drops every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
