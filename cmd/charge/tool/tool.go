// Package toolcmder provides the tool command for calling agent tools
// directly, bypassing the conversational endpoint.
package toolcmder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
)

var errNoUser = errors.New("no user id: pass --user-id, set agent.user_id or run charge tool login")

const toolLongDesc string = `Call agent tools directly.

Tools run on the agent's /agent/chat endpoint without going through the
language model. Most tools act on behalf of a user: pass --user-id, set
agent.user_id in the config, or log in once with "charge tool login".

Use subcommands:
  charge tool list                     List the tools the agent offers
  charge tool call <name> [flags]      Call any tool with raw parameters
  charge tool login <username>         Check credentials and remember the user
  charge tool user                     Show the current user's profile
  charge tool contacts                 List contacts
  charge tool add-contact              Add a contact
  charge tool fortune                  Daily fortune and outfit report
  charge tool usage                    Usage statistics (admin)`

const toolShortDesc string = "Call agent tools directly"

func NewToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: toolShortDesc,
		Long:  toolLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newContactsCmd())
	cmd.AddCommand(newAddContactCmd())
	cmd.AddCommand(newFortuneCmd())
	cmd.AddCommand(newUsageCmd())

	return cmd
}

// agentFlags are the connection flags every tool subcommand accepts.
type agentFlags struct {
	baseURL string
	userID  string
	timeout string
}

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagUserID,
	config.FlagTimeout,
}

func addAgentFlags(cmd *cobra.Command, f *agentFlags) {
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &f.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &f.userID)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &f.timeout)
}

// toolEnv is what a tool subcommand needs at run time.
type toolEnv struct {
	settings *sharedcmder.Settings
	client   *agentclient.Client
	logger   *slog.Logger
	out      io.Writer
}

func newToolEnv(cmd *cobra.Command) (*toolEnv, error) {
	settings, _, err := sharedcmder.Load(cmd, flagKeys...)
	if err != nil {
		return nil, err
	}

	log := settings.NewLogger()
	return &toolEnv{
		settings: settings,
		client:   settings.NewClient(log),
		logger:   log,
		out:      cmd.OutOrStdout(),
	}, nil
}

func (e *toolEnv) requireUser() (string, error) {
	if e.settings.UserID == "" {
		return "", errNoUser
	}
	return e.settings.UserID, nil
}

// print writes a tool reply. JSON data is pretty printed, colored on a
// terminal. A non-empty query selects a gjson path from the data first.
func (e *toolEnv) print(resp *agentclient.ChatResponse, query string) error {
	text := resp.Text()

	if query != "" {
		if !gjson.Valid(text) {
			return fmt.Errorf("reply from %s is not JSON, cannot query %q", resp.ToolName, query)
		}
		result := gjson.Get(text, query)
		if !result.Exists() {
			return fmt.Errorf("no value at %q", query)
		}
		text = result.Raw
		if result.Type == gjson.String {
			text = result.String()
		}
	}

	fmt.Fprintln(e.out, e.format(text))
	return nil
}

func (e *toolEnv) format(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return text
	}
	if !gjson.Valid(trimmed) {
		return text
	}

	out := pretty.Pretty([]byte(trimmed))
	if f, ok := e.out.(*os.File); ok && cliui.IsTerminal(f) {
		out = pretty.Color(out, nil)
	}
	return strings.TrimRight(string(out), "\n")
}
