package secret

import (
	"context"
)

// Ref is a reference to a secret held outside the configuration file
type Ref struct {
	Type     string // env or keyring
	Name     string // environment variable name or keyring entry
	Original string // text of the reference as written
}

// Provider resolves references of one type
type Provider interface {
	// Resolve retrieves the secret value
	Resolve(ctx context.Context, ref Ref) (string, error)

	// Store saves a secret, if the provider supports it
	Store(ctx context.Context, ref Ref, value string) error

	// Delete removes a secret, if the provider supports it
	Delete(ctx context.Context, ref Ref) error

	// IsAvailable reports whether the provider works on this system
	IsAvailable() bool
}
