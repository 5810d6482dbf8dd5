package main

import (
	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/logs"
	"github.com/mcp-shark/sharkctl/internal/mcpserver"
)

// GetMCPCommand creates the mcp subcommand
func GetMCPCommand() *cobra.Command {
	var noAnalysis bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve sharkctl as MCP tools over stdio",
		Long: "Run an MCP server on stdin/stdout exposing shark_status, shark_start, shark_stop, shark_settings, " +
			"shark_output and shark_analyze, so an MCP client can manage the inspector it is being inspected by.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: true})
			if err != nil {
				return err
			}
			defer a.Close()

			logDir := a.cfg.Logging.LogDir
			opts := []mcpserver.Option{
				mcpserver.WithOutputReader(func(lines int) ([]string, error) {
					return logs.ReadServerOutputTail(logDir, lines)
				}),
			}
			if !noAnalysis {
				analyzer, _ := a.newAnalyzer()
				opts = append(opts, mcpserver.WithAnalyzer(analyzer))
			}

			srv := mcpserver.New(a.controller, a.inspectorURL(), version, a.sugar, opts...)
			return srv.ServeStdio()
		},
	}

	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "Do not expose the shark_analyze tool")
	return cmd
}
