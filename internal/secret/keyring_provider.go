package secret

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName groups sharkctl entries in the OS keyring
	ServiceName       = "sharkctl"
	SecretTypeKeyring = "keyring"

	availabilityKey = "_sharkctl_availability"
)

// KeyringProvider resolves secrets from the OS keyring (Keychain, Secret Service, WinCred)
type KeyringProvider struct {
	serviceName string
}

// NewKeyringProvider creates a new keyring provider
func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{serviceName: ServiceName}
}

// Resolve retrieves the secret value from the keyring
func (p *KeyringProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	value, err := keyring.Get(p.serviceName, ref.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s from keyring: %w", ref.Name, err)
	}
	return value, nil
}

// Store saves a secret in the keyring
func (p *KeyringProvider) Store(_ context.Context, ref Ref, value string) error {
	if err := keyring.Set(p.serviceName, ref.Name, value); err != nil {
		return fmt.Errorf("failed to store secret %s in keyring: %w", ref.Name, err)
	}
	return nil
}

// Delete removes a secret from the keyring
func (p *KeyringProvider) Delete(_ context.Context, ref Ref) error {
	if err := keyring.Delete(p.serviceName, ref.Name); err != nil {
		return fmt.Errorf("failed to delete secret %s from keyring: %w", ref.Name, err)
	}
	return nil
}

// IsAvailable checks the keyring by writing and reading a probe entry
func (p *KeyringProvider) IsAvailable() bool {
	if err := keyring.Set(p.serviceName, availabilityKey, "ok"); err != nil {
		return false
	}
	if _, err := keyring.Get(p.serviceName, availabilityKey); err != nil {
		return false
	}
	_ = keyring.Delete(p.serviceName, availabilityKey)
	return true
}
