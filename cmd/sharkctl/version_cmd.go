package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcp-shark/sharkctl/internal/updatecheck"
)

// GetVersionCommand creates the version subcommand
func GetVersionCommand() *cobra.Command {
	var (
		check  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the sharkctl version",
		Long:  "Print the sharkctl version. With --check, compare it with the latest GitHub release.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := &updatecheck.VersionInfo{CurrentVersion: version}
			if check {
				a, err := newApp(cmd, appOptions{})
				if err != nil {
					return err
				}
				defer a.Close()

				checker := updatecheck.New(a.sugar, version)
				if checker.Enabled() {
					info = checker.Check(cmd.Context())
				} else {
					info.CheckError = "update checks are disabled for this build"
				}
			}

			return printOutput(cmd.OutOrStdout(), output, info, func(w io.Writer) error {
				return printVersionText(w, info, check)
			})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	addOutputFlag(cmd, &output)
	return cmd
}

func printVersionText(w io.Writer, info *updatecheck.VersionInfo, checked bool) error {
	fmt.Fprintf(w, "sharkctl %s\n", info.CurrentVersion)
	if !checked {
		return nil
	}
	switch {
	case info.CheckError != "":
		fmt.Fprintf(w, "Update check failed: %s\n", info.CheckError)
	case info.UpdateAvailable:
		fmt.Fprintf(w, "Update available: %s (%s)\n", info.LatestVersion, info.ReleaseURL)
	default:
		fmt.Fprintln(w, "You are running the latest version.")
	}
	return nil
}
