// Package historycmder provides the history command for browsing stored
// chat transcripts.
package historycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
	"github.com/workcharge/charge/pkg/utils"
)

const historyLongDesc string = `Browse stored chat transcripts.

Without arguments, lists stored sessions, most recently active first.
Given a session ID, prints that conversation.

Requires a transcript store: storage.sqlite_path or storage.postgres_dsn,
or the --sqlite / --postgres flags.

Examples:
  charge history --sqlite ~/.charge/charge.db
  charge history session_0f8c2f0e-8a4e-4bbf-9d3b-6c1f52a3e1d7`

const historyShortDesc string = "Browse stored transcripts"

func NewHistoryCmd() *cobra.Command {
	var (
		sqlitePath  string
		postgresDSN string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := sharedcmder.Load(cmd, config.FlagSQLite, config.FlagPostgres)
			if err != nil {
				return err
			}
			if !settings.HasStorage() {
				return sharedcmder.ErrNoStorage
			}

			ctx := cmd.Context()
			driver, err := settings.NewStorageDriver(ctx, settings.NewLogger())
			if err != nil {
				return err
			}
			defer driver.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return printSession(ctx, out, driver, args[0])
			}
			return listSessions(ctx, out, driver, limit)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &postgresDSN)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")

	return cmd
}

func listSessions(ctx context.Context, w io.Writer, driver storage.Driver, limit int) error {
	sessions, err := driver.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No stored sessions."))
		return nil
	}

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Sessions:"),
		cliui.ValueStyle.Render(strconv.Itoa(len(sessions))),
	)

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %s  %s\n      %s\n",
			cliui.NameStyle.Render(s.SessionID),
			cliui.DimStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
			cliui.DimStyle.Render(fmt.Sprintf("%d messages", s.MessageCount)),
			utils.Truncate(utils.FirstLine(s.FirstPrompt), 72),
		)
	}
	fmt.Fprintln(w)
	return nil
}

func printSession(ctx context.Context, w io.Writer, driver storage.Driver, sessionID string) error {
	msgs, err := driver.Messages(ctx, sessionID)
	if errors.As(err, &storage.ErrNotFound{}) {
		return fmt.Errorf("no stored session %q", sessionID)
	}
	if err != nil {
		return fmt.Errorf("loading transcript: %w", err)
	}

	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Session:"), cliui.NameStyle.Render(sessionID))
	for _, m := range msgs {
		prompt := cliui.UserPrompt
		if m.Role == llm.RoleAssistant {
			prompt = cliui.AssistantPrompt
		}
		content := m.Content
		if m.Failed {
			content = cliui.ErrorStyle.Render(content)
		}
		fmt.Fprintf(w, "  %s %s%s\n\n",
			cliui.DimStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04")),
			prompt,
			content,
		)
	}
	return nil
}
