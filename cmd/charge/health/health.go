// Package healthcmder provides the health command for checking that the
// agent API is reachable.
package healthcmder

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	sharedcmder "github.com/workcharge/charge/cmd/charge/shared"
	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
)

const healthLongDesc string = `Check that the agent API is reachable and healthy.

Exits non-zero when the agent cannot be reached or reports a status other
than "healthy".

Examples:
  charge health
  charge health --base-url https://agent.example.com/api`

const healthShortDesc string = "Check the agent API"

func NewHealthCmd() *cobra.Command {
	var baseURL, timeout string

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := sharedcmder.Load(cmd, config.FlagBaseURL, config.FlagTimeout)
			if err != nil {
				return err
			}
			client := settings.NewClient(settings.NewLogger())

			start := time.Now()
			resp, err := client.Health(cmd.Context())
			return printHealth(cmd.OutOrStdout(), settings.BaseURL, resp, time.Since(start), err)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &timeout)

	return cmd
}

func printHealth(w io.Writer, baseURL string, resp *agentclient.HealthResponse, elapsed time.Duration, err error) error {
	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Agent:"), cliui.NameStyle.Render(baseURL))

	if err != nil {
		fmt.Fprintf(w, "  %s unreachable\n\n", cliui.FailMark)
		return fmt.Errorf("health check failed: %w", err)
	}

	healthy := resp.Status == "healthy"
	mark := cliui.SuccessMark
	if !healthy {
		mark = cliui.FailMark
	}

	fmt.Fprintf(w, "  %s %s %s\n", mark, resp.Status, cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(elapsed))))
	if resp.Message != "" {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Message:"), resp.Message)
	}
	if resp.Timestamp != "" {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Time:   "), cliui.DimStyle.Render(resp.Timestamp))
	}
	fmt.Fprintln(w)

	if !healthy {
		return fmt.Errorf("agent reported status %q", resp.Status)
	}
	return nil
}
