// Package chatcmder provides the chat command, an interactive terminal
// conversation with the agent.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/dotdir"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
	"github.com/workcharge/charge/pkg/utils"
)

type chatCommander struct {
	flags  flagValues
	resume bool

	settings *sharedcmder.Settings
	services *sharedcmder.Services
	client   chat.Streamer
	session  *chat.Session
	logger   *slog.Logger

	out io.Writer
}

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

const chatLongDesc string = `Start an interactive chat with the agent.

Replies stream into the terminal as they arrive. Lines starting with "/"
are actions:
  /help          List actions
  /history       Show this conversation
  /new           Start a new conversation
  /fortune, /mbti, /chart, /relationship, /career
                 Send a preset question, optionally followed by more text
  /exit          Leave (Ctrl+D works too)

Press Ctrl+C while a reply is streaming to cancel it.

With a transcript store configured (storage.sqlite_path or
storage.postgres_dsn), --resume continues the last conversation.

Examples:
  charge chat
  charge chat --resume --sqlite ~/.charge/charge.db
  charge chat --base-url https://agent.example.com/api`

const chatShortDesc string = "Interactive chat with the agent"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := sharedcmder.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			cmder.settings = settings
			cmder.out = cmd.OutOrStdout()

			return cmder.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.flags.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.flags.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.flags.kafkaTopic)
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the last conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = c.settings.NewLogger()

	services, err := c.settings.NewServices(ctx, c.logger)
	if err != nil {
		return err
	}
	c.services = services
	defer func() {
		if err := services.Close(); err != nil {
			c.logger.Warn("closing services", "error", err)
		}
	}()

	c.client = c.settings.NewClient(c.logger)

	if err := c.openSession(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Agent:"),
		cliui.NameStyle.Render(c.settings.BaseURL),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for actions, /exit or Ctrl+D to quit."))

	dispatcher := c.newDispatcher()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		err := dispatcher.Dispatch(ctx, scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, chat.ErrQuit):
			fmt.Fprintln(c.out)
			return nil
		default:
			fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// openSession starts a new session, or restores the last one with --resume.
func (c *chatCommander) openSession(ctx context.Context) error {
	cfg := chat.Config{
		Client: c.client,
		Pool:   c.services.Pool,
		Source: eventstream.EventSource{Surface: "cli", BaseURL: c.settings.BaseURL},
		Logger: c.logger,
	}

	if c.resume {
		state, err := dotdir.NewManager().LoadSession(c.settings.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading last session: %w", err)
		}

		if state != nil {
			history, err := c.services.Driver.Messages(ctx, state.SessionID)
			if err != nil && !errors.As(err, &storage.ErrNotFound{}) {
				return fmt.Errorf("loading transcript: %w", err)
			}
			cfg.SessionID = state.SessionID
			cfg.History = history

			fmt.Fprintf(c.out, "\n  %s Resuming %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(state.SessionID),
				cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(history))),
			)
		}
	}

	if cfg.SessionID == "" {
		fmt.Fprintf(c.out, "\n  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	c.session = chat.NewSession(cfg)
	return nil
}

func (c *chatCommander) newDispatcher() *chat.Dispatcher {
	d := chat.NewDispatcher()

	d.Register(chat.SendAction, "", c.send)
	d.Register("help", "list actions", func(context.Context, string) error {
		for _, a := range d.Actions() {
			fmt.Fprintf(c.out, "  %s  %s\n",
				cliui.KeyStyle.Render(fmt.Sprintf("/%-13s", a.Name)),
				cliui.DimStyle.Render(a.Help),
			)
		}
		fmt.Fprintln(c.out)
		return nil
	})
	d.Register("history", "show this conversation", func(context.Context, string) error {
		printTranscript(c.out, c.session.Transcript())
		return nil
	})
	d.Register("new", "start a new conversation", func(ctx context.Context, _ string) error {
		c.resume = false
		if err := c.openSession(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		return nil
	})
	chat.RegisterFeatures(d, c.send)

	return d
}

// send streams one reply to the terminal. Exchange failures are shown
// inline and do not end the conversation.
func (c *chatCommander) send(ctx context.Context, text string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprint(c.out, cliui.AssistantPrompt)

	streamed := false
	reply, err := c.session.Send(ctx, text, chat.OnText(func(s string) {
		streamed = true
		fmt.Fprint(c.out, s)
	}))

	switch {
	case err != nil && !reply.Failed:
		// Rejected before the exchange started.
		fmt.Fprintln(c.out)
		return err
	case err != nil:
		if streamed {
			fmt.Fprintln(c.out)
		}
		fmt.Fprintf(c.out, "%s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(reply.Content))
	default:
		if !streamed {
			fmt.Fprint(c.out, reply.Content)
		}
		fmt.Fprint(c.out, "\n\n")
	}

	if err := dotdir.NewManager().SaveSession(c.session.ID(), c.settings.ConfigDir); err != nil {
		c.logger.Warn("failed to remember session", "error", err)
	}
	return nil
}

func printTranscript(w io.Writer, msgs []llm.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No messages yet."))
		return
	}

	for _, m := range msgs {
		prompt := cliui.UserPrompt
		if m.Role == llm.RoleAssistant {
			prompt = cliui.AssistantPrompt
		}
		content := utils.Truncate(strings.ReplaceAll(m.Content, "\n", " "), 200)
		if m.Failed {
			content = cliui.ErrorStyle.Render(content)
		}
		fmt.Fprintf(w, "  %s %s%s\n",
			cliui.DimStyle.Render(m.CreatedAt.Local().Format("15:04")),
			prompt,
			content,
		)
	}
	fmt.Fprintln(w)
}
