package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// GetItemsCommand creates the items subcommand
func GetItemsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the actions available for the current server state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			items := panel.StatusItems(a.controller.IsRunning(cmd.Context()))
			return printOutput(cmd.OutOrStdout(), output, items, func(w io.Writer) error {
				return printItemsText(w, items)
			})
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}

func printItemsText(w io.Writer, items []panel.StatusItem) error {
	for _, item := range items {
		mark := "[x]"
		if !item.Enabled {
			mark = "[ ]"
		}
		line := fmt.Sprintf("%s %-24s %s", mark, item.Label, item.Command)
		if item.Description != "" {
			line += fmt.Sprintf(" (%s)", item.Description)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
