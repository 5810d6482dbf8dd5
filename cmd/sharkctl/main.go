package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logToFile  bool
	logDir     string
	assumeYes  bool

	version = "v0.1.0" // This will be injected by -ldflags during build
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	code := exitCodeFor(err)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	stop()
	os.Exit(code)
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sharkctl",
		Short:         "Start, stop and inspect a local MCP Shark server",
		Long:          "sharkctl controls the lifecycle of a local MCP Shark server, shows which view of it is usable, and serves local LLM analysis to it.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file path (default: ./sharkctl.json or ~/.mcp-shark/sharkctl.json)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.BoolVar(&logToFile, "log-to-file", false, "Also write logs to a file in the standard OS location")
	flags.StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")

	// Bound onto configuration keys by config.Load
	flags.String("host", "", "MCP Shark server host")
	flags.Int("port", 0, "MCP Shark server port")
	flags.String("data-dir", "", "Data directory path (default: ~/.mcp-shark)")
	flags.Bool("notifications", true, "Show desktop notifications")
	flags.Int("bridge-port", 0, "LLM bridge listen port")

	rootCmd.AddCommand(
		GetStatusCommand(),
		GetRouteCommand(),
		GetStartCommand(),
		GetStopCommand(),
		GetSettingsCommand(),
		GetItemsCommand(),
		GetOpenCommand(),
		GetPanelCommand(),
		GetWatchCommand(),
		GetBridgeCommand(),
		GetAnalyzeCommand(),
		GetLogsCommand(),
		GetExecCommand(),
		GetSecretsCommand(),
		GetMCPCommand(),
		GetTrayCommand(),
		GetVersionCommand(),
	)

	return rootCmd
}
