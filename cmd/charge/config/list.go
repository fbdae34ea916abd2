package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/logger"
)

const listLongDesc string = `List all configuration values.

Prints every key grouped by its TOML section, with defaults filled in.
Secrets such as storage.postgres_dsn are masked unless --show-secrets
is given.

Examples:
  charge config list
  charge config list --show-secrets`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, showSecrets)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values in clear text")

	return cmd
}

func runList(w io.Writer, configDir string, showSecrets bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger)

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	section := ""
	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if s := config.Section(key); s != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = s
			fmt.Fprintf(w, "  %s\n", cliui.NameStyle.Render("["+s+"]"))
		}

		switch {
		case value == "":
			fmt.Fprintf(w, "  %-*s = %s\n", width, key, cliui.DimStyle.Render("<not set>"))
		case config.IsSecretKey(key) && !showSecrets:
			fmt.Fprintf(w, "  %-*s = %s\n", width, key, cliui.DimStyle.Render(logger.Redacted))
		default:
			fmt.Fprintf(w, "  %-*s = %s\n", width, key, cliui.ValueStyle.Render(fmt.Sprintf("%q", value)))
		}
	}
	fmt.Fprintln(w)

	return nil
}
