package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
	"github.com/workcharge/charge/pkg/logger"
)

const setLongDesc string = `Set a configuration value.

Writes key = value into config.toml in the .charge/ directory, creating
the file when needed. agent.timeout takes a Go duration ("30s", "5m",
"0" for none) and render.format is one of terminal, html or raw.

Examples:
  charge config set agent.base_url http://localhost:5000/api
  charge config set agent.user_id admin
  charge config set events.kafka_brokers broker1:9092,broker2:9092`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}
}

func runSet(w io.Writer, key, value, configDir string) error {
	cfger, err := configerFor(key, configDir)
	if err != nil {
		return err
	}
	printTarget(w, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = logger.Redacted
	}
	fmt.Fprintf(w, "  %s %s = %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(shown))
	return nil
}
