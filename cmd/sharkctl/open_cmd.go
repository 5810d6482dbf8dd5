package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
	"github.com/mcp-shark/sharkctl/internal/tray"
)

// GetOpenCommand creates the open subcommand
func GetOpenCommand() *cobra.Command {
	var browser, copyURL bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the traffic inspector",
		Long:  "Print the traffic inspector URL. --browser opens it in the default browser and --copy puts it on the clipboard. The server must be running.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.controller.IsRunning(cmd.Context()) {
				a.notifier.Warning(panel.MsgStartFirst)
				return silentExit(ExitCodeNotRunning)
			}

			url := a.inspectorURL()
			fmt.Fprintln(cmd.OutOrStdout(), url)
			if copyURL {
				if err := clipboard.WriteAll(url); err != nil {
					return fmt.Errorf("failed to copy URL: %w", err)
				}
			}
			if browser {
				if err := tray.OpenURL(url); err != nil {
					return fmt.Errorf("failed to open browser: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&browser, "browser", false, "Open the inspector in the default browser")
	cmd.Flags().BoolVar(&copyURL, "copy", false, "Copy the inspector URL to the clipboard")
	return cmd
}
