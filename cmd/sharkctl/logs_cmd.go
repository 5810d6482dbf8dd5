package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/logs"
)

const maxContextBytes = 1 << 20

// GetLogsCommand creates the logs subcommand
func GetLogsCommand() *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent MCP Shark server output",
		Long:  "Print the last lines of server output captured while the server was started attached (start --follow or the panel). With --follow, keep printing new lines until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			tail, err := logs.ReadServerOutputTail(a.cfg.Logging.LogDir, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case len(tail) > 0:
				if _, err := fmt.Fprintln(out, strings.Join(tail, "\n")); err != nil {
					return err
				}
			case !follow:
				fmt.Fprintln(cmd.ErrOrStderr(), "No server output has been captured yet.")
				return nil
			}
			if !follow {
				return nil
			}

			return logs.FollowServerOutput(cmd.Context(), a.cfg.Logging.LogDir, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are captured")
	return cmd
}

func readAllLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxContextBytes))
	return string(data), err
}
