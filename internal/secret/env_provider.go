package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// SecretTypeEnv selects environment variables
const SecretTypeEnv = "env"

// EnvProvider resolves secrets from environment variables
type EnvProvider struct{}

// NewEnvProvider creates a new environment variable provider
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Resolve retrieves the secret value from the environment
func (p *EnvProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	value, ok := os.LookupEnv(ref.Name)
	if !ok || value == "" {
		return "", fmt.Errorf("environment variable %s not found or empty", ref.Name)
	}
	return value, nil
}

// Store is not supported for environment variables
func (p *EnvProvider) Store(context.Context, Ref, string) error {
	return errors.New("env provider does not support storing secrets")
}

// Delete is not supported for environment variables
func (p *EnvProvider) Delete(context.Context, Ref) error {
	return errors.New("env provider does not support deleting secrets")
}

// IsAvailable always returns true
func (p *EnvProvider) IsAvailable() bool {
	return true
}
