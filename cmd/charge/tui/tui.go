// Package tuicmder provides the tui command, a full-screen chat with the
// agent built on bubbletea.
package tuicmder

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/logger"
)

type flagValues struct {
	baseURL      string
	timeout      string
	sqlitePath   string
	postgresDSN  string
	kafkaBrokers string
	kafkaTopic   string
	wordWrap     uint
}

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagWordWrap,
}

const tuiLongDesc string = `Full-screen chat with the agent.

Replies stream into a scrollable pane and are rendered as markdown once
complete. While the agent is answering, input is ignored. Slash actions
work as in "charge chat": /help, /new, /exit and the feature presets.

Examples:
  charge tui
  charge tui --base-url https://agent.example.com/api`

const tuiShortDesc string = "Full-screen chat with the agent"

func NewTUICmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := sharedcmder.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return run(cmd, settings)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &flags.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &flags.kafkaTopic)
	config.AddUintFlag(cmd, config.Flags, config.FlagWordWrap, &flags.wordWrap)

	return cmd
}

func run(cmd *cobra.Command, settings *sharedcmder.Settings) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The screen belongs to bubbletea; logs are dropped unless --debug.
	log := logger.Nop()
	if settings.Debug {
		log = settings.NewLogger()
	}

	services, err := settings.NewServices(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "closing services: %v\n", err)
		}
	}()

	client := settings.NewClient(log)
	newSession := func() *chat.Session {
		return chat.NewSession(chat.Config{
			Client: client,
			Pool:   services.Pool,
			Source: eventstream.EventSource{Surface: "tui", BaseURL: settings.BaseURL},
			Logger: log,
		})
	}

	renderer, err := cliui.NewMarkdownRenderer(cliui.MarkdownStyle(os.Stdout), settings.WordWrap)
	if err != nil {
		return err
	}
	render := func(s string) string {
		out, _ := renderer.Render(s)
		return out
	}

	m := newModel(ctx, settings.BaseURL, newSession, render)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	// An exchange may still be running; stop it before the pool closes.
	cancel()
	m.wait()

	if err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
