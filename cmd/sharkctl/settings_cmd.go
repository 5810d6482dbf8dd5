package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/lifecycle"
)

// GetSettingsCommand creates the settings subcommand
func GetSettingsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the MCP Shark server settings",
		Long:  "Fetch the settings document from the running MCP Shark server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if !a.controller.IsRunning(ctx) {
				return withExitCode(ExitCodeNotRunning, errors.New(lifecycle.MsgAlreadyStopped))
			}

			settings, err := a.controller.RefreshSettings(ctx)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), output, settings, nil)
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
