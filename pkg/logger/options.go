package logger

import (
	"io"
	"log/slog"
)

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug when debug is true.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the charmbracelet/log handler. The last of WithPretty
// and WithJSON set to true wins.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		if pretty {
			c.format = formatPretty
		} else if c.format == formatPretty {
			c.format = formatText
		}
	}
}

// WithJSON selects slog's JSON handler, used for the serve log file.
func WithJSON(json bool) Option {
	return func(c *config) {
		if json {
			c.format = formatJSON
		} else if c.format == formatJSON {
			c.format = formatText
		}
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters writes every record to all of w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithRedactedKeys masks attributes with these keys in addition to
// DefaultRedactedKeys.
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) {
		c.redact = append(append([]string{}, c.redact...), keys...)
	}
}
