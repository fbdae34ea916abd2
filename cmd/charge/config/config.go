// Package configcmder provides the config command for managing persistent
// charge configuration stored in the .charge/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/config"
)

const configLongDesc string = `Manage persistent charge configuration.

Configuration is stored as config.toml in the .charge/ directory and provides
default values for command flags. CLI flags and CHARGE_ environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  agent.base_url, agent.user_id, agent.timeout,
  storage.sqlite_path, storage.postgres_dsn,
  serve.listen,
  events.kafka_brokers, events.kafka_topic,
  render.format, render.word_wrap

Subcommands:
  charge config set <key> <value>    Set a configuration value
  charge config get <key>            Get a configuration value
  charge config reset <key>          Restore a key's default
  charge config list                 List all configuration values

Examples:
  charge config set agent.base_url https://agent.example.com/api
  charge config set storage.sqlite_path ~/.charge/charge.db
  charge config get agent.user_id
  charge config list`

const configShortDesc string = "Manage persistent charge configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configerFor validates key before touching the config file.
func configerFor(key, configDir string) (*config.Configer, error) {
	if !config.IsValidConfigKey(key) {
		return nil, fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfger, nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
