// Package mcpcmder provides the mcp command, which serves the agent tools
// to an MCP client over stdio.
package mcpcmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpapi "github.com/workcharge/charge/api/mcp"
	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/eventstream"
)

type flagValues struct {
	baseURL      string
	timeout      string
	sqlitePath   string
	postgresDSN  string
	kafkaBrokers string
	kafkaTopic   string
}

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const mcpLongDesc string = `Serve the agent to an MCP client over stdio.

Exposes two tools:
  ask_agent         Ask the agent a question, optionally within a session
  list_agent_tools  List the tools the agent can use

Logs are written to stderr; stdout carries the protocol.

Example MCP client configuration:
  {
    "mcpServers": {
      "charge": {"command": "charge", "args": ["mcp"]}
    }
  }`

const mcpShortDesc string = "Serve the agent over MCP stdio"

func NewMCPCmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := sharedcmder.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return run(cmd.Context(), settings)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &flags.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &flags.kafkaTopic)

	return cmd
}

func run(ctx context.Context, settings *sharedcmder.Settings) error {
	log := settings.NewLogger()

	services, err := settings.NewServices(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn("closing services", "error", err)
		}
	}()

	server, err := mcpapi.NewServer(mcpapi.Config{
		Client: settings.NewClient(log),
		Pool:   services.Pool,
		Source: eventstream.EventSource{Surface: "mcp", BaseURL: settings.BaseURL},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Debug("serving MCP over stdio", "agent", settings.BaseURL)
	if err := server.RunStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
