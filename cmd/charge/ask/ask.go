// Package askcmder provides the ask command, a one-shot question to the agent.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/markup"
	"github.com/workcharge/charge/pkg/storage"
)

type askCommander struct {
	flags     flagValues
	sessionID string

	settings *sharedcmder.Settings
	logger   *slog.Logger

	out    io.Writer
	errOut io.Writer
}

type flagValues struct {
	baseURL      string
	timeout      string
	sqlitePath   string
	postgresDSN  string
	kafkaBrokers string
	kafkaTopic   string
	format       string
	wordWrap     uint
}

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagFormat,
	config.FlagWordWrap,
}

const askLongDesc string = `Ask the agent a single question and print the reply.

The reply is printed once complete, formatted by --format:
  terminal  Markdown rendered for the terminal (default)
  html      The HTML used by the web chat widget
  raw       Text exactly as streamed, printed as it arrives

Pass --session to continue an earlier conversation. The session ID is
printed on stderr.

Examples:
  charge ask "What is my fortune for today?"
  charge ask --format raw "Summarize my contacts" > contacts.md
  charge ask --session session_1234 "And tomorrow?"`

const askShortDesc string = "Ask the agent a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := sharedcmder.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			cmder.settings = settings
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.flags.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.flags.kafkaTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagFormat, &cmder.flags.format)
	config.AddUintFlag(cmd, config.Flags, config.FlagWordWrap, &cmder.flags.wordWrap)
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session ID to continue")

	return cmd
}

func (c *askCommander) run(ctx context.Context, prompt string) error {
	c.logger = c.settings.NewLogger()

	services, err := c.settings.NewServices(ctx, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			c.logger.Warn("closing services", "error", err)
		}
	}()

	cfg := chat.Config{
		Client:    c.settings.NewClient(c.logger),
		SessionID: c.sessionID,
		Pool:      services.Pool,
		Source:    eventstream.EventSource{Surface: "cli", BaseURL: c.settings.BaseURL},
		Logger:    c.logger,
	}
	if c.sessionID != "" {
		history, err := services.Driver.Messages(ctx, c.sessionID)
		if err != nil && !errors.As(err, &storage.ErrNotFound{}) {
			return fmt.Errorf("loading transcript: %w", err)
		}
		cfg.History = history
	}
	session := chat.NewSession(cfg)

	var opts []chat.SendOption
	if c.settings.Format == config.FormatRaw {
		opts = append(opts, chat.OnText(func(s string) {
			fmt.Fprint(c.out, s)
		}))
	}

	reply, err := session.Send(ctx, prompt, opts...)
	fmt.Fprintf(c.errOut, "  %s %s\n", cliui.DimStyle.Render("session"), session.ID())
	if err != nil {
		return fmt.Errorf("asking agent: %w", err)
	}

	return c.print(reply.Content)
}

func (c *askCommander) print(content string) error {
	switch c.settings.Format {
	case config.FormatRaw:
		fmt.Fprintln(c.out)
	case config.FormatHTML:
		fmt.Fprintln(c.out, markup.Render(content))
	default:
		style := "notty"
		if f, ok := c.out.(*os.File); ok {
			style = cliui.MarkdownStyle(f)
		}
		r, err := cliui.NewMarkdownRenderer(style, c.settings.WordWrap)
		if err != nil {
			return err
		}
		rendered, err := r.Render(content)
		if err != nil {
			c.logger.Debug("markdown render failed", "error", err)
		}
		fmt.Fprint(c.out, rendered)
	}
	return nil
}
