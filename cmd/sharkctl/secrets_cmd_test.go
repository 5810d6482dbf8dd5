package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/mcp-shark/sharkctl/internal/secret"
)

func runSecrets(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"secrets"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSecretsSetAndDelete(t *testing.T) {
	keyring.MockInit()

	out, err := runSecrets(t, "sk-from-stdin\n", "set", "model_api_key")
	require.NoError(t, err)
	assert.Contains(t, out, "${keyring:model_api_key}")

	value, err := secret.NewResolver().Expand(context.Background(), "${keyring:model_api_key}")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-stdin", value)

	_, err = runSecrets(t, "", "delete", "model_api_key")
	require.NoError(t, err)

	_, err = secret.NewResolver().Expand(context.Background(), "${keyring:model_api_key}")
	assert.Error(t, err)
}

func TestSecretsSetFromEnv(t *testing.T) {
	keyring.MockInit()
	t.Setenv("SHARKCTL_TEST_KEY", "sk-env-value")

	_, err := runSecrets(t, "", "set", "from_env", "--from-env", "SHARKCTL_TEST_KEY")
	require.NoError(t, err)

	value, err := secret.NewResolver().Expand(context.Background(), "${keyring:from_env}")
	require.NoError(t, err)
	assert.Equal(t, "sk-env-value", value)
}

func TestSecretsSetRejectsEmptyValue(t *testing.T) {
	keyring.MockInit()

	_, err := runSecrets(t, "\n", "set", "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}
