// Package chargecmder assembles the charge root command.
package chargecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/workcharge/charge/cmd/charge/ask"
	chatcmder "github.com/workcharge/charge/cmd/charge/chat"
	configcmder "github.com/workcharge/charge/cmd/charge/config"
	healthcmder "github.com/workcharge/charge/cmd/charge/health"
	historycmder "github.com/workcharge/charge/cmd/charge/history"
	mcpcmder "github.com/workcharge/charge/cmd/charge/mcp"
	servecmder "github.com/workcharge/charge/cmd/charge/serve"
	toolcmder "github.com/workcharge/charge/cmd/charge/tool"
	tuicmder "github.com/workcharge/charge/cmd/charge/tui"
	versioncmder "github.com/workcharge/charge/cmd/version"
)

const chargeLongDesc string = `Charge is a terminal, web and MCP client for the charge agent.

Talk to the agent using:
  charge chat          Interactive chat in the terminal
  charge ask <prompt>  One-shot question
  charge tui           Full-screen chat
  charge tool          Call agent tools directly
  charge serve         Run the web chat widget
  charge mcp           Expose the agent to other agents over MCP`

const chargeShortDesc string = "Charge - agent chat client"

func NewChargeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "charge",
		Short:        chargeShortDesc,
		Long:         chargeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .charge/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(toolcmder.NewToolCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
