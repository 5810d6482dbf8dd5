package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/state"
)

const followNotice = "Following server output. The server may exit once sharkctl stops following (Ctrl+C)."

// GetStartCommand creates the start subcommand
func GetStartCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the MCP Shark server if it is not running",
		Long: `Start the MCP Shark server if it is not already reachable, then wait until it answers.

By default the server is started detached and sharkctl exits once it is ready.

With --follow the server writes its output into pipes held by sharkctl, which
streams it until interrupted. When sharkctl exits those pipes close, and the
server may die (SIGPIPE) the next time it writes output. Use --follow only for
a session you will end together with the server. To keep the server running
after sharkctl exits, run "sharkctl start" without --follow and check on it
with "sharkctl status" or "sharkctl watch".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: follow})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var sink monitor.Observer
			if follow {
				sink = printEvents(cmd.OutOrStdout())
				sub := a.launcher.Subscribe(sink)
				defer sub.Cancel()
			}

			if !a.controller.EnsureRunning(ctx, a.confirm, sink) {
				switch {
				case ctx.Err() != nil:
					return ctx.Err()
				case a.controller.Phase() == state.PhaseStartFailed:
					return silentExit(ExitCodeStartFailed)
				default:
					return silentExit(ExitCodeDeclined)
				}
			}

			if follow {
				fmt.Fprintln(cmd.ErrOrStderr(), followNotice)
				<-ctx.Done()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Start attached and stream the server output; the server may die when sharkctl exits")
	return cmd
}

// printEvents writes launcher events as plain lines; stderr lines are prefixed
func printEvents(w io.Writer) monitor.Observer {
	return monitor.ObserverFunc(func(e monitor.Event) {
		switch e.Type {
		case monitor.EventStarted:
			fmt.Fprintf(w, "Process started (PID %d)\n", e.PID)
		default:
			if e.Line == "" {
				return
			}
			if e.Stream == monitor.StreamStderr {
				fmt.Fprintf(w, "[stderr] %s\n", e.Line)
				return
			}
			fmt.Fprintln(w, e.Line)
		}
	})
}
