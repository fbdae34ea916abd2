package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from config.toml in the .charge/
directory. Unset keys show their default. With --raw only the bare
value is printed, which suits shell substitution.

Examples:
  charge config get agent.base_url
  charge config get render.format
  curl "$(charge config get --raw agent.base_url)/health"`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args[0], configDir, raw)
		},
		ValidArgsFunction: completeKeys,
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the value")

	return cmd
}

func runGet(w io.Writer, key, configDir string, raw bool) error {
	cfger, err := configerFor(key, configDir)
	if err != nil {
		return err
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if raw {
		fmt.Fprintln(w, value)
		return nil
	}

	printTarget(w, cfger)
	shown := cliui.ValueStyle.Render(value)
	if value == "" {
		shown = cliui.DimStyle.Render("<not set>")
	}
	fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render(key), shown)

	return nil
}
