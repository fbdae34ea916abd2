// Package sharedcmder resolves configuration for charge commands and builds
// the services they share: the agent client, transcript storage, the event
// publisher and the worker pool.
package sharedcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/eventstream/kafka"
	"github.com/workcharge/charge/pkg/eventstream/nop"
	"github.com/workcharge/charge/pkg/logger"
	"github.com/workcharge/charge/pkg/storage"
	"github.com/workcharge/charge/pkg/storage/inmemory"
	"github.com/workcharge/charge/pkg/storage/postgres"
	"github.com/workcharge/charge/pkg/storage/sqlite"
	"github.com/workcharge/charge/pkg/worker"
)

// ErrNoStorage is returned when a command needs persisted transcripts but
// neither SQLite nor PostgreSQL is configured.
var ErrNoStorage = errors.New("no transcript storage configured: set storage.sqlite_path or storage.postgres_dsn")

// Settings is the resolved configuration of one command invocation.
type Settings struct {
	ConfigDir string
	Debug     bool

	BaseURL string
	UserID  string
	Timeout time.Duration

	SQLitePath  string
	PostgresDSN string

	Listen string

	KafkaBrokers []string
	KafkaTopic   string

	Format   string
	WordWrap uint
}

// Load resolves settings for cmd: registered flags named by flagKeys, then
// CHARGE_ environment variables, then config.toml, then defaults. The
// returned viper instance stays live for commands that watch the config.
func Load(cmd *cobra.Command, flagKeys ...string) (*Settings, *viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	s, err := FromViper(v)
	if err != nil {
		return nil, nil, err
	}
	s.ConfigDir = configDir
	s.Debug = debug

	return s, v, nil
}

// FromViper reads Settings out of v.
func FromViper(v *viper.Viper) (*Settings, error) {
	timeout, err := config.ParseTimeout(v.GetString("agent.timeout"))
	if err != nil {
		return nil, err
	}

	format := v.GetString("render.format")
	if !config.IsValidFormat(format) {
		return nil, fmt.Errorf("invalid render format %q: must be one of %v", format, config.RenderFormats)
	}

	return &Settings{
		BaseURL:      v.GetString("agent.base_url"),
		UserID:       v.GetString("agent.user_id"),
		Timeout:      timeout,
		SQLitePath:   v.GetString("storage.sqlite_path"),
		PostgresDSN:  v.GetString("storage.postgres_dsn"),
		Listen:       v.GetString("serve.listen"),
		KafkaBrokers: config.SplitBrokers(v.GetString("events.kafka_brokers")),
		KafkaTopic:   v.GetString("events.kafka_topic"),
		Format:       format,
		WordWrap:     v.GetUint("render.word_wrap"),
	}, nil
}

// NewLogger returns the pretty CLI logger on stderr, so it never mixes
// with replies written to stdout.
func (s *Settings) NewLogger(extra ...io.Writer) *slog.Logger {
	return logger.New(
		logger.WithDebug(s.Debug),
		logger.WithPretty(true),
		logger.WithWriters(append([]io.Writer{os.Stderr}, extra...)...),
	)
}

// NewClient builds the agent API client.
func (s *Settings) NewClient(log *slog.Logger) *agentclient.Client {
	return agentclient.New(s.BaseURL,
		agentclient.WithTimeout(s.Timeout),
		agentclient.WithLogger(log),
	)
}

// HasStorage reports whether a persistent transcript store is configured.
func (s *Settings) HasStorage() bool {
	return s.PostgresDSN != "" || s.SQLitePath != ""
}

// NewStorageDriver opens PostgreSQL when a DSN is set, else SQLite when a
// path is set, else an in-memory store.
func (s *Settings) NewStorageDriver(ctx context.Context, log *slog.Logger) (storage.Driver, error) {
	if s.PostgresDSN != "" {
		driver, err := postgres.NewDriver(ctx, s.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storage: %w", err)
		}
		log.Debug("using PostgreSQL storage")
		return driver, nil
	}

	if s.SQLitePath != "" {
		driver, err := sqlite.NewDriver(ctx, s.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		log.Debug("using SQLite storage", "path", s.SQLitePath)
		return driver, nil
	}

	log.Debug("using in-memory storage")
	return inmemory.NewDriver(), nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func (s *Settings) NewPublisher(log *slog.Logger) (eventstream.Publisher, error) {
	if len(s.KafkaBrokers) == 0 {
		return nop.NewPublisher(), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: s.KafkaBrokers,
		Topic:   s.KafkaTopic,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	log.Debug("publishing exchange events", "brokers", s.KafkaBrokers, "topic", s.KafkaTopic)
	return p, nil
}

// Services bundles the background machinery behind a chat session.
type Services struct {
	Driver    storage.Driver
	Publisher eventstream.Publisher
	Pool      *worker.Pool
}

// NewServices opens storage and the publisher and starts a worker pool
// over them.
func (s *Settings) NewServices(ctx context.Context, log *slog.Logger) (*Services, error) {
	driver, err := s.NewStorageDriver(ctx, log)
	if err != nil {
		return nil, err
	}

	publisher, err := s.NewPublisher(log)
	if err != nil {
		driver.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		publisher.Close()
		driver.Close()
		return nil, err
	}

	return &Services{Driver: driver, Publisher: publisher, Pool: pool}, nil
}

// Close drains the pool, then closes the publisher and storage.
func (s *Services) Close() error {
	s.Pool.Close()
	return errors.Join(s.Publisher.Close(), s.Driver.Close())
}
