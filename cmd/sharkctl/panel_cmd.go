package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
	"github.com/mcp-shark/sharkctl/internal/tui"
)

// GetPanelCommand creates the panel subcommand
func GetPanelCommand() *cobra.Command {
	var noAnalysis bool

	cmd := &cobra.Command{
		Use:     "panel",
		Aliases: []string{"tui"},
		Short:   "Open the MCP Shark panel in the terminal",
		Long:    "Show the view that matches the server state, start and stop the server, follow its output and ask a local model about it.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: true, fullScreen: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			opts := a.panelOptions()
			if !noAnalysis {
				analyzer, _ := a.newAnalyzer()
				opts = append(opts, panel.WithAnalyzer(analyzer))
			}

			registry := panel.NewRegistry()
			build := func(r panel.Renderer) tui.Panel {
				p, _ := registry.Show(ctx, func() *panel.Panel {
					return panel.New(a.controller, r, opts...)
				})
				return p
			}

			if err := tui.Run(ctx, build, a.inspectorURL(), a.cfg.Panel.OutputLines); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "Disable LLM analysis in the panel")
	return cmd
}

// panelOptions wires a panel to the shared components. Starting from the panel
// needs no confirmation: the key press is the confirmation.
func (a *app) panelOptions() []panel.Option {
	return []panel.Option{
		panel.WithOutputSource(a.launcher),
		panel.WithTimings(a.cfg.Panel),
		panel.WithLogger(a.sugar),
		panel.WithRouteRecorder(a.obs.Metrics()),
	}
}
