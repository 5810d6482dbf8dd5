package secret

import (
	"context"
	"fmt"
	"strings"
)

// Resolver expands secret references using registered providers
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver with the env and keyring providers
func NewResolver() *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.RegisterProvider(SecretTypeEnv, NewEnvProvider())
	r.RegisterProvider(SecretTypeKeyring, NewKeyringProvider())
	return r
}

// RegisterProvider registers provider for secretType, replacing any previous one
func (r *Resolver) RegisterProvider(secretType string, provider Provider) {
	r.providers[secretType] = provider
}

func (r *Resolver) provider(secretType string) (Provider, error) {
	provider, exists := r.providers[secretType]
	if !exists {
		return nil, fmt.Errorf("no provider for secret type: %s", secretType)
	}
	if !provider.IsAvailable() {
		return nil, fmt.Errorf("provider for %s is not available on this system", secretType)
	}
	return provider, nil
}

// Resolve resolves a single reference
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	provider, err := r.provider(ref.Type)
	if err != nil {
		return "", err
	}
	return provider.Resolve(ctx, ref)
}

// Store stores a secret with the provider for ref.Type
func (r *Resolver) Store(ctx context.Context, ref Ref, value string) error {
	provider, err := r.provider(ref.Type)
	if err != nil {
		return err
	}
	return provider.Store(ctx, ref, value)
}

// Delete deletes a secret with the provider for ref.Type
func (r *Resolver) Delete(ctx context.Context, ref Ref) error {
	provider, err := r.provider(ref.Type)
	if err != nil {
		return err
	}
	return provider.Delete(ctx, ref)
}

// Expand replaces every reference in input with its resolved value.
// Input without references is returned unchanged.
func (r *Resolver) Expand(ctx context.Context, input string) (string, error) {
	if !IsRef(input) {
		return input, nil
	}

	result := input
	for _, ref := range FindRefs(input) {
		value, err := r.Resolve(ctx, *ref)
		if err != nil {
			return "", fmt.Errorf("failed to resolve secret %s: %w", ref.Original, err)
		}
		result = strings.ReplaceAll(result, ref.Original, value)
	}
	return result, nil
}
