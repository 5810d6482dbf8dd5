package secret

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Resolve(ctx context.Context, ref Ref) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Store(ctx context.Context, ref Ref, value string) error {
	args := m.Called(ctx, ref, value)
	return args.Error(0)
}

func (m *MockProvider) Delete(ctx context.Context, ref Ref) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockProvider) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

func newMockResolver(p Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.RegisterProvider("mock", p)
	return r
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	ref := Ref{Type: "mock", Name: "model_api_key"}

	t.Run("successful resolution", func(t *testing.T) {
		p := &MockProvider{}
		p.On("IsAvailable").Return(true)
		p.On("Resolve", ctx, ref).Return("sk-local", nil)

		value, err := newMockResolver(p).Resolve(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, "sk-local", value)
		p.AssertExpectations(t)
	})

	t.Run("provider unavailable", func(t *testing.T) {
		p := &MockProvider{}
		p.On("IsAvailable").Return(false)

		_, err := newMockResolver(p).Resolve(ctx, ref)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
		p.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := newMockResolver(&MockProvider{}).Resolve(ctx, Ref{Type: "vault", Name: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no provider for secret type: vault")
	})
}

func TestResolver_Expand(t *testing.T) {
	ctx := context.Background()

	t.Run("plain value unchanged", func(t *testing.T) {
		value, err := newMockResolver(&MockProvider{}).Expand(ctx, "sk-plain")
		require.NoError(t, err)
		assert.Equal(t, "sk-plain", value)
	})

	t.Run("reference replaced", func(t *testing.T) {
		p := &MockProvider{}
		p.On("IsAvailable").Return(true)
		p.On("Resolve", ctx, Ref{Type: "mock", Name: "key", Original: "${mock:key}"}).Return("abc", nil)

		value, err := newMockResolver(p).Expand(ctx, "Bearer ${mock:key}")
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", value)
	})

	t.Run("resolution error", func(t *testing.T) {
		p := &MockProvider{}
		p.On("IsAvailable").Return(true)
		p.On("Resolve", ctx, mock.Anything).Return("", errors.New("boom"))

		_, err := newMockResolver(p).Expand(ctx, "${mock:key}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "${mock:key}")
	})
}

func TestResolver_EnvReference(t *testing.T) {
	t.Setenv("SHARKCTL_TEST_MODEL_KEY", "sk-env")

	value, err := NewResolver().Expand(context.Background(), "${env:SHARKCTL_TEST_MODEL_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", value)
}

func TestKeyringProvider(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	r := NewResolver()
	ref := Ref{Type: SecretTypeKeyring, Name: "model_api_key"}

	require.NoError(t, r.Store(ctx, ref, "sk-keyring"))

	value, err := r.Expand(ctx, "${keyring:model_api_key}")
	require.NoError(t, err)
	assert.Equal(t, "sk-keyring", value)

	require.NoError(t, r.Delete(ctx, ref))
	_, err = r.Resolve(ctx, ref)
	assert.Error(t, err)
}

func TestEnvProvider(t *testing.T) {
	p := NewEnvProvider()
	ctx := context.Background()

	t.Setenv("SHARKCTL_EMPTY", "")
	_, err := p.Resolve(ctx, Ref{Type: SecretTypeEnv, Name: "SHARKCTL_EMPTY"})
	assert.Error(t, err)

	assert.Error(t, p.Store(ctx, Ref{Type: SecretTypeEnv, Name: "X"}, "v"))
	assert.Error(t, p.Delete(ctx, Ref{Type: SecretTypeEnv, Name: "X"}))
	assert.True(t, p.IsAvailable())
}
