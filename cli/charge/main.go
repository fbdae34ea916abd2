// Command charge is the terminal, web and MCP client for the charge agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	chargecmder "github.com/workcharge/charge/cmd/charge"
	"github.com/workcharge/charge/pkg/cliui"
)

func main() {
	cmd := chargecmder.NewChargeCmd()
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cliui.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(exitCode(err))
	}
}

// exitCode follows the shell convention of 130 for an interrupted run.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}
