package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/lifecycle"
)

// GetStopCommand creates the stop subcommand
func GetStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the MCP Shark server",
		Long:  "Terminate whatever process listens on the MCP Shark port, after confirmation, and check that the server is gone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			outcome := a.controller.StopServer(cmd.Context(), a.confirm)
			a.sugar.Debugw("Stop finished", "outcome", outcome)
			return stopResult(cmd, outcome)
		},
	}
}

// stopResult maps a stop outcome onto an exit code. The notifier has already
// told the user about every outcome but a declined confirmation.
func stopResult(cmd *cobra.Command, outcome lifecycle.StopOutcome) error {
	switch outcome {
	case lifecycle.StopStopped, lifecycle.StopAlreadyStopped:
		return nil
	case lifecycle.StopDeclined:
		fmt.Fprintln(cmd.ErrOrStderr(), outcome.Message())
		return silentExit(ExitCodeDeclined)
	default:
		return silentExit(ExitCodeStillRunning)
	}
}
