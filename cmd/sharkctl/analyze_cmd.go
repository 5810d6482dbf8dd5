package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// GetAnalyzeCommand creates the analyze subcommand
func GetAnalyzeCommand() *cobra.Command {
	var contextFile string

	cmd := &cobra.Command{
		Use:   "analyze <prompt>",
		Short: "Ask the local model about MCP traffic",
		Long:  "Send a prompt, with optional context read from a file or '-' for stdin, to the local model used by the LLM bridge.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return errors.New("prompt must not be empty")
			}

			var contextText string
			switch contextFile {
			case "":
			case "-":
				data, err := readAllLimited(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read context from stdin: %w", err)
				}
				contextText = data
			default:
				data, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("failed to read context file: %w", err)
				}
				contextText = string(data)
			}

			analyzer, _ := a.newAnalyzer()
			outcome := analyzer.Analyze(cmd.Context(), prompt, contextText)
			if outcome.Error != "" {
				return errors.New(outcome.Error)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), outcome.Result)
			return err
		},
	}

	cmd.Flags().StringVar(&contextFile, "context-file", "", "File with context for the prompt ('-' reads stdin)")
	return cmd
}
