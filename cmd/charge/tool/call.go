package toolcmder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const callLongDesc string = `Call any agent tool by name.

Parameters come from a YAML (or JSON) file given with --params-file and
from repeated --param key=value flags, which win over the file. Values
that parse as JSON (numbers, booleans, objects) are sent as such; anything
else is sent as a string.

For user scoped tools the configured user id is sent as user_id unless a
parameter sets it. Use --query to pick a value out of a JSON reply with a
gjson path.

Examples:
  charge tool call query_contacts --param contact_type=friend
  charge tool call get_daily_fortune_and_outfit --param report_date=2025-01-31
  charge tool call add_contact --params-file contact.yaml
  charge tool call query_contacts --query "contacts.#.name"`

const callShortDesc string = "Call an agent tool"

func newCallCmd() *cobra.Command {
	var (
		flags      agentFlags
		params     []string
		paramsFile string
		query      string
	)

	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: callShortDesc,
		Long:  callLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolParams, err := buildParams(paramsFile, params)
			if err != nil {
				return err
			}

			env, err := newToolEnv(cmd)
			if err != nil {
				return err
			}

			resp, err := env.client.CallTool(cmd.Context(), env.settings.UserID, args[0], toolParams)
			if err != nil {
				return fmt.Errorf("calling %s: %w", args[0], err)
			}
			return env.print(resp, query)
		},
	}

	addAgentFlags(cmd, &flags)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Tool parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&paramsFile, "params-file", "", "YAML or JSON file of tool parameters")
	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path to select from the reply")

	return cmd
}

// buildParams merges the params file with key=value pairs.
func buildParams(path string, pairs []string) (map[string]any, error) {
	params := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("parsing params file %s: %w", path, err)
		}
		if params == nil {
			params = map[string]any{}
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		params[strings.TrimSpace(key)] = paramValue(value)
	}

	return params, nil
}

func paramValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
