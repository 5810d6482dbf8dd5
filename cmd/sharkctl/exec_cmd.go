package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// commandAliases maps panel command ids onto subcommands
var commandAliases = map[string]string{
	panel.CommandStartServer:       "start",
	panel.CommandStopServer:        "stop",
	panel.CommandShowDatabasePanel: "panel",
	panel.CommandOpenInspector:     "open",
	panel.CommandRefresh:           "status",
}

// GetExecCommand creates the exec subcommand
func GetExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "exec <command-id> [args...]",
		Short:     "Run a panel command by its id",
		Long:      "Run the subcommand bound to a panel command id such as " + panel.CommandStartServer + ".",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: commandIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := commandAliases[args[0]]
			if !ok {
				return fmt.Errorf("unknown command id %q (known: %s)", args[0], strings.Join(commandIDs(), ", "))
			}

			target, _, err := cmd.Root().Find([]string{name})
			if err != nil {
				return err
			}
			if err := target.ParseFlags(args[1:]); err != nil {
				return err
			}
			target.SetContext(cmd.Context())
			return target.RunE(target, target.Flags().Args())
		},
	}
}

func commandIDs() []string {
	ids := make([]string, 0, len(commandAliases))
	for id := range commandAliases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
