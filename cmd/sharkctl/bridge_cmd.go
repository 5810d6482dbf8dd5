package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/llm"
	"github.com/mcp-shark/sharkctl/internal/observability"
)

// GetBridgeCommand creates the bridge subcommand
func GetBridgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve local LLM analysis to MCP Shark",
		Long: `Listen for POST /analyze requests from MCP Shark and answer them with a local
OpenAI-compatible model (Ollama, LM Studio, llama.cpp). Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.Bridge.Enabled {
				return withExitCode(ExitCodeConfigError, errors.New("the LLM bridge is disabled (bridge.enabled is false)"))
			}

			analyzer, source := a.newAnalyzer()
			var obs *observability.Manager
			if a.cfg.Bridge.EnableMetric {
				obs = a.obs
				obs.Health().AddHealthChecker(observability.CheckFunc("model-source", func(ctx context.Context) error {
					_, err := source.Models(ctx, a.cfg.Bridge.ModelVendor)
					return err
				}))
			}

			bridge := llm.NewBridge(analyzer.Analyze, obs, a.sugar)
			if err := bridge.Start(a.cfg.Bridge.Listen, a.cfg.Bridge.Port); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "LLM bridge listening on http://%s\n", bridge.Addr())

			<-cmd.Context().Done()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return bridge.Shutdown(ctx)
		},
	}
}
