// Package servecmder provides the serve command, which runs the web chat
// widget and the streamable HTTP MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/workcharge/charge/api"
	mcpapi "github.com/workcharge/charge/api/mcp"
	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/dotdir"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/logger"
)

const serveLogFile = "serve.log"

type serveCommander struct {
	flags flagValues
	noMCP bool

	settings *sharedcmder.Settings
	viper    *viper.Viper
	client   *agentclient.Client
	logger   *slog.Logger
}

type flagValues struct {
	listen       string
	baseURL      string
	timeout      string
	sqlitePath   string
	postgresDSN  string
	kafkaBrokers string
	kafkaTopic   string
}

var flagKeys = []string{
	config.FlagListen,
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the web chat widget.

Serves the chat page at / and its JSON API under /api, backed by the
agent at agent.base_url. Unless --no-mcp is set, the MCP tools are also
served over streamable HTTP at /mcp.

Changes to agent.base_url in config.toml are picked up without a restart.
Logs go to the terminal and, as JSON, to serve.log in the .charge/
directory.

Examples:
  charge serve
  charge serve --listen :9000 --sqlite ~/.charge/charge.db
  charge serve --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the web chat widget"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, v, err := sharedcmder.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			cmder.settings = settings
			cmder.viper = v

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.flags.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.flags.kafkaTopic)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not serve MCP at /mcp")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	logPath, err := dotdir.NewManager().File(c.settings.ConfigDir, serveLogFile)
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening server log: %w", err)
	}
	defer logFile.Close()

	c.logger = logger.Multi(
		c.settings.NewLogger(),
		logger.New(
			logger.WithDebug(c.settings.Debug),
			logger.WithJSON(true),
			logger.WithWriter(logFile),
		),
	)

	services, err := c.settings.NewServices(ctx, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			c.logger.Warn("closing services", "error", err)
		}
	}()

	c.client = c.settings.NewClient(c.logger)
	c.watchConfig()

	apiConfig := api.Config{
		ListenAddr: c.settings.Listen,
		Client:     c.client,
		Driver:     services.Driver,
		Pool:       services.Pool,
		Source:     eventstream.EventSource{Surface: "web", BaseURL: c.settings.BaseURL},
		Logger:     c.logger,
	}

	if !c.noMCP {
		mcpServer, err := mcpapi.NewServer(mcpapi.Config{
			Client: c.client,
			Pool:   services.Pool,
			Source: eventstream.EventSource{Surface: "mcp", BaseURL: c.settings.BaseURL},
			Logger: c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiConfig.MCPHandler = mcpServer.Handler()
	}

	server, err := api.NewServer(apiConfig)
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	c.logger.Info("starting web server",
		"listen", c.settings.Listen,
		"agent", c.settings.BaseURL,
		"mcp", !c.noMCP,
		"log_file", logPath,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}

// watchConfig follows config.toml so a new agent.base_url takes effect
// on the next request.
func (c *serveCommander) watchConfig() {
	if c.viper.ConfigFileUsed() == "" {
		c.logger.Debug("no config file to watch")
		return
	}

	c.viper.OnConfigChange(func(e fsnotify.Event) {
		c.reload(e.Name)
	})
	c.viper.WatchConfig()
}

func (c *serveCommander) reload(name string) {
	settings, err := sharedcmder.FromViper(c.viper)
	if err != nil {
		c.logger.Warn("ignoring invalid config change", "file", name, "error", err)
		return
	}

	if settings.BaseURL == c.client.BaseURL() {
		return
	}

	c.logger.Info("agent base URL changed", "from", c.client.BaseURL(), "to", settings.BaseURL)
	c.client.SetBaseURL(settings.BaseURL)
}
