package toolcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
)

const listLongDesc string = `List the tools the agent offers.

Examples:
  charge tool list
  charge tool list --json`

const listShortDesc string = "List agent tools"

func newListCmd() *cobra.Command {
	var (
		flags  agentFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}
			return env.runList(cmd, asJSON)
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tool schemas as JSON")

	return cmd
}

func (e *toolEnv) runList(cmd *cobra.Command, asJSON bool) error {
	resp, err := e.client.Tools(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	if asJSON {
		for _, t := range resp.Tools {
			fmt.Fprintf(e.out, "%s\n", cliui.KeyStyle.Render(t.Name))
			if len(t.Parameters) > 0 {
				fmt.Fprintln(e.out, e.format(string(t.Parameters)))
			}
		}
		return nil
	}

	if len(resp.Tools) == 0 {
		fmt.Fprintf(e.out, "  %s\n", cliui.DimStyle.Render("The agent offers no tools."))
		return nil
	}

	width := 0
	for _, t := range resp.Tools {
		width = max(width, len(t.Name))
	}

	fmt.Fprintf(e.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Tools:"),
		cliui.ValueStyle.Render(fmt.Sprint(len(resp.Tools))),
	)
	for _, t := range resp.Tools {
		fmt.Fprintf(e.out, "  %s  %s\n",
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", width, t.Name)),
			cliui.DimStyle.Render(t.Description),
		)
	}
	fmt.Fprintln(e.out)
	return nil
}
