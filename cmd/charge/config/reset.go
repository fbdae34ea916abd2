package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
)

const resetLongDesc string = `Reset a configuration value to its default.

Keys without a default, such as agent.user_id, are cleared.

Examples:
  charge config reset agent.base_url
  charge config reset agent.user_id`

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Reset a configuration value to its default",
		Long:  resetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runReset(cmd.OutOrStdout(), args[0], configDir)
		},
		ValidArgsFunction: completeKeys,
	}
}

func runReset(w io.Writer, key, configDir string) error {
	cfger, err := configerFor(key, configDir)
	if err != nil {
		return err
	}
	printTarget(w, cfger)

	def, err := cfger.ResetConfigValue(key)
	if err != nil {
		return err
	}

	if def == "" {
		fmt.Fprintf(w, "  %s Cleared %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(key))
	} else {
		fmt.Fprintf(w, "  %s %s = %s %s\n\n", cliui.SuccessMark,
			cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(def), cliui.DimStyle.Render("(default)"))
	}
	return nil
}
