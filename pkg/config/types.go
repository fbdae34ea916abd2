package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config is the persistent charge configuration stored as config.toml in
// the .charge/ directory.
type Config struct {
	Version int           `toml:"version"`
	Agent   AgentConfig   `toml:"agent"`
	Storage StorageConfig `toml:"storage"`
	Serve   ServeConfig   `toml:"serve"`
	Events  EventsConfig  `toml:"events"`
	Render  RenderConfig  `toml:"render"`
}

// AgentConfig points the client at the remote agent API.
// BaseURL includes the API prefix, e.g. http://localhost:5000/api.
type AgentConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	UserID  string `toml:"user_id,omitempty"`

	// Timeout is a Go duration string. "0" disables the client timeout.
	Timeout string `toml:"timeout,omitempty"`
}

// StorageConfig selects where chat transcripts are kept. PostgresDSN wins
// over SQLitePath; with neither set transcripts live in memory only.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

type ServeConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig enables Kafka publishing of completed exchanges when
// KafkaBrokers (comma separated) is set.
type EventsConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

type RenderConfig struct {
	Format   string `toml:"format,omitempty"`
	WordWrap uint   `toml:"word_wrap,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to accessors on *Config.
// clear is only needed for keys whose default is empty.
type configKeyInfo struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	clear  func(c *Config)
	secret bool
}

// configKeys is the authoritative map of all supported config keys.
var configKeys = map[string]configKeyInfo{
	"agent.base_url": {
		get: func(c *Config) string { return c.Agent.BaseURL },
		set: func(c *Config, v string) error { c.Agent.BaseURL = v; return nil },
	},
	"agent.user_id": {
		get:   func(c *Config) string { return c.Agent.UserID },
		set:   func(c *Config, v string) error { c.Agent.UserID = v; return nil },
		clear: func(c *Config) { c.Agent.UserID = "" },
	},
	"agent.timeout": {
		get: func(c *Config) string { return c.Agent.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for agent.timeout: %w", err)
			}
			c.Agent.Timeout = v
			return nil
		},
	},
	"storage.sqlite_path": {
		get:   func(c *Config) string { return c.Storage.SQLitePath },
		set:   func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
		clear: func(c *Config) { c.Storage.SQLitePath = "" },
	},
	"storage.postgres_dsn": {
		get:    func(c *Config) string { return c.Storage.PostgresDSN },
		set:    func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
		clear:  func(c *Config) { c.Storage.PostgresDSN = "" },
		secret: true,
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"events.kafka_brokers": {
		get:   func(c *Config) string { return c.Events.KafkaBrokers },
		set:   func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
		clear: func(c *Config) { c.Events.KafkaBrokers = "" },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
	"render.format": {
		get: func(c *Config) string { return c.Render.Format },
		set: func(c *Config, v string) error {
			if !IsValidFormat(v) {
				return fmt.Errorf("invalid value for render.format: %q (expected one of %v)", v, RenderFormats)
			}
			c.Render.Format = v
			return nil
		},
	},
	"render.word_wrap": {
		get: func(c *Config) string {
			if c.Render.WordWrap == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Render.WordWrap), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for render.word_wrap: %w", err)
			}
			c.Render.WordWrap = uint(n)
			return nil
		},
	},
}

// Render formats understood by the ask and chat commands.
const (
	FormatTerminal = "terminal"
	FormatHTML     = "html"
	FormatRaw      = "raw"
)

var RenderFormats = []string{FormatTerminal, FormatHTML, FormatRaw}

func IsValidFormat(f string) bool {
	for _, known := range RenderFormats {
		if f == known {
			return true
		}
	}
	return false
}
