package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// GetWatchCommand creates the watch subcommand
func GetWatchCommand() *cobra.Command {
	var (
		interval   time.Duration
		showOutput bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the panel view whenever the server state changes",
		Long:  "Re-evaluate the server on an interval and print a line each time the panel view changes, until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{longRunning: true})
			if err != nil {
				return err
			}
			defer a.Close()

			timings := a.cfg.Panel
			if interval > 0 {
				timings.StatusCheckInterval = interval
			}

			renderer := &lineRenderer{out: cmd.OutOrStdout(), showOutput: showOutput}
			opts := append(a.panelOptions(), panel.WithTimings(timings))
			p := panel.New(a.controller, renderer, opts...)
			defer p.Dispose()

			ctx := cmd.Context()
			p.Open(ctx)
			panel.NewWatcher(p, p.StatusCheckInterval(), a.sugar).Run(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Status check interval (default from panel.status_check_interval)")
	cmd.Flags().BoolVar(&showOutput, "output", false, "Also print captured server output")
	return cmd
}

// lineRenderer prints one line per view change
type lineRenderer struct {
	mu         sync.Mutex
	out        io.Writer
	showOutput bool
	last       panel.View
	rendered   bool
}

func (r *lineRenderer) Render(v panel.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rendered && v.Route == r.last.Route && v.Message == r.last.Message {
		return
	}
	r.last, r.rendered = v, true

	line := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), v.Route)
	if v.Message != "" {
		line += " " + v.Message
	}
	fmt.Fprintln(r.out, line)
}

func (r *lineRenderer) AppendOutput(line panel.OutputLine) {
	if !r.showOutput {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  | %s\n", line.Text)
}

func (r *lineRenderer) Post(panel.Reply) {}
