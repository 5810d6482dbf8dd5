package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/secret"
)

// GetSecretsCommand returns the secrets management command
func GetSecretsCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the model API key in the OS keyring",
		Long: "Store and remove secrets in the operating system keyring (Keychain on macOS, Secret Service on Linux, WinCred on Windows). " +
			"Reference them from bridge.model_api_key as ${keyring:NAME} or ${env:NAME}.",
	}

	secretsCmd.AddCommand(getSecretsSetCommand(), getSecretsDeleteCommand(), getSecretsCheckCommand())
	return secretsCmd
}

func getSecretsSetCommand() *cobra.Command {
	var fromEnv string

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret in the keyring",
		Long:  "Store a secret in the OS keyring. The value is read from --from-env or from standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var value string
			if fromEnv != "" {
				value = os.Getenv(fromEnv)
				if value == "" {
					return fmt.Errorf("environment variable %s is not set or empty", fromEnv)
				}
			} else {
				var err error
				value, err = readSecretValue(cmd)
				if err != nil {
					return fmt.Errorf("failed to read secret value: %w", err)
				}
			}
			if value == "" {
				return errors.New("secret value cannot be empty")
			}

			ref := secret.Ref{Type: secret.SecretTypeKeyring, Name: name}
			if err := secret.NewResolver().Store(cmd.Context(), ref, value); err != nil {
				return fmt.Errorf("failed to store secret: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Secret '%s' stored in keyring\n", name)
			fmt.Fprintf(out, "Use in config: ${%s:%s}\n", secret.SecretTypeKeyring, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromEnv, "from-env", "", "Read value from environment variable")
	return cmd
}

func getSecretsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a secret from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := secret.Ref{Type: secret.SecretTypeKeyring, Name: args[0]}
			if err := secret.NewResolver().Delete(cmd.Context(), ref); err != nil {
				return fmt.Errorf("failed to delete secret: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Secret '%s' deleted from keyring\n", args[0])
			return nil
		},
	}
}

func getSecretsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve bridge.model_api_key and print it masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return configError(err)
			}

			out := cmd.OutOrStdout()
			raw := cfg.Bridge.ModelAPIKey
			if raw == "" {
				fmt.Fprintln(out, "model_api_key: not configured")
				return nil
			}

			value, err := secret.NewResolver().Expand(cmd.Context(), raw)
			if err != nil {
				return withExitCode(ExitCodeConfigError, err)
			}
			if secret.IsRef(raw) {
				fmt.Fprintf(out, "model_api_key: %s -> %s\n", raw, secret.Mask(value))
			} else {
				fmt.Fprintf(out, "model_api_key: %s (plaintext, consider 'sharkctl secrets set')\n", secret.Mask(value))
			}
			return nil
		},
	}
}

// readSecretValue reads one line, without echo when stdin is a terminal
func readSecretValue(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret value: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
