package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
	"github.com/mcp-shark/sharkctl/internal/state"
)

// statusReport is what `sharkctl status` prints
type statusReport struct {
	URL               string      `json:"url" yaml:"url" toml:"url"`
	Running           bool        `json:"running" yaml:"running" toml:"running"`
	SetupComplete     bool        `json:"setup_complete" yaml:"setup_complete" toml:"setup_complete"`
	Route             panel.Route `json:"route" yaml:"route" toml:"route"`
	Phase             state.Phase `json:"phase" yaml:"phase" toml:"phase"`
	SettingsFetchedAt *time.Time  `json:"settings_fetched_at,omitempty" yaml:"settings_fetched_at,omitempty" toml:"settings_fetched_at,omitempty"`
}

func (a *app) status(cmd *cobra.Command) statusReport {
	ctx := cmd.Context()
	report := statusReport{URL: a.inspectorURL()}

	report.Running = a.controller.IsRunning(ctx)
	if report.Running {
		report.SetupComplete = a.controller.IsSetupComplete(ctx)
		if _, err := a.controller.RefreshSettings(ctx); err != nil {
			a.sugar.Warnw("Failed to fetch settings", "error", err)
		}
		if _, at := a.controller.CachedSettings(); !at.IsZero() {
			report.SettingsFetchedAt = &at
		}
	}
	report.Route = panel.Decide(report.Running, report.SetupComplete)
	report.Phase = a.controller.Phase()
	return report
}

// GetStatusCommand creates the status subcommand
func GetStatusCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the MCP Shark server is running and set up",
		Long:  "Probe the MCP Shark server and report reachability, setup state and the panel view that applies. Exits with code 2 when the server is not running.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.status(cmd)
			err = printOutput(cmd.OutOrStdout(), output, report, func(w io.Writer) error {
				return printStatusText(w, report)
			})
			if err != nil {
				return err
			}
			if !report.Running {
				return silentExit(ExitCodeNotRunning)
			}
			return nil
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func printStatusText(w io.Writer, r statusReport) error {
	if !r.Running {
		_, err := fmt.Fprintf(w, "MCP Shark server: not running (%s)\n", r.URL)
		return err
	}

	setup := "pending"
	if r.SetupComplete {
		setup = "complete"
	}
	fmt.Fprintf(w, "MCP Shark server: running (%s)\n", r.URL)
	fmt.Fprintf(w, "Setup:            %s\n", setup)
	_, err := fmt.Fprintf(w, "View:             %s\n", r.Route)
	return err
}

// GetRouteCommand creates the route subcommand
func GetRouteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Print the panel view for the current server state",
		Long:  "Print one of not-started, setup or traffic.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			running := a.controller.IsRunning(ctx)
			route := panel.Decide(running, running && a.controller.IsSetupComplete(ctx))
			a.obs.Metrics().RecordRoute(string(route))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), route)
			return err
		},
	}
}
