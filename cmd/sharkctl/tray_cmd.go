package main

import (
	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/panel"
	"github.com/mcp-shark/sharkctl/internal/tray"
)

// GetTrayCommand creates the tray subcommand
func GetTrayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Show MCP Shark status in the system tray",
		Long:  "Show a system tray menu with the server state, start and stop actions and a shortcut to the traffic inspector, until Quit is chosen.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			configPath, _ := config.ResolveConfigPath(configFile)

			registry := panel.NewRegistry()
			build := func(r panel.Renderer) tray.Panel {
				p, _ := registry.Show(ctx, func() *panel.Panel {
					return panel.New(a.controller, r, a.panelOptions()...)
				})
				return p
			}

			return tray.New(build, a.inspectorURL(), configPath, a.sugar).Run(ctx)
		},
	}
}
