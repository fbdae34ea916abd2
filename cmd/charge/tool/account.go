package toolcmder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
)

const loginLongDesc string = `Check credentials with the agent and remember the user.

The password is read from the terminal without echo, or from the first
line of stdin when it is not a terminal. On success the username is saved
as agent.user_id so later tool calls act on behalf of that user.

Examples:
  charge tool login alice
  echo "$PASSWORD" | charge tool login alice --no-save`

func newLoginCmd() *cobra.Command {
	var (
		flags  agentFlags
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in as a user",
		Long:  loginLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			username := args[0]
			resp, err := env.client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := env.print(resp, ""); err != nil {
				return err
			}

			if noSave {
				return nil
			}
			cfger, err := config.NewConfiger(env.settings.ConfigDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfger.SetConfigValue("agent.user_id", username); err != nil {
				return fmt.Errorf("saving user id: %w", err)
			}
			fmt.Fprintf(env.out, "  %s Logged in as %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(username),
			)
			return nil
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the username as agent.user_id")

	return cmd
}

// readPassword prompts on errOut and reads without echo from a terminal,
// or reads one line from any other reader.
func readPassword(in io.Reader, errOut io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && cliui.IsTerminal(f) {
		fmt.Fprint(errOut, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func newUserCmd() *cobra.Command {
	var (
		flags agentFlags
		query string
	)

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Show the current user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			userID, err := env.requireUser()
			if err != nil {
				return err
			}

			resp, err := env.client.QueryUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("querying user: %w", err)
			}
			return env.print(resp, query)
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path to select from the reply")

	return cmd
}

func newFortuneCmd() *cobra.Command {
	var (
		flags agentFlags
		date  string
	)

	cmd := &cobra.Command{
		Use:   "fortune",
		Short: "Daily fortune and outfit report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			userID, err := env.requireUser()
			if err != nil {
				return err
			}

			resp, err := env.client.DailyFortune(cmd.Context(), userID, date)
			if err != nil {
				return fmt.Errorf("fetching fortune: %w", err)
			}
			return env.print(resp, "")
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringVar(&date, "date", "", "Report date as YYYY-MM-DD (default today)")

	return cmd
}

func newUsageCmd() *cobra.Command {
	var (
		flags agentFlags
		date  string
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Usage statistics (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			adminID, err := env.requireUser()
			if err != nil {
				return err
			}

			resp, err := env.client.UsageStatistics(cmd.Context(), adminID, date)
			if err != nil {
				return fmt.Errorf("fetching usage: %w", err)
			}
			return env.print(resp, "")
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringVar(&date, "date", "", "Statistics date as YYYY-MM-DD (default today)")

	return cmd
}
