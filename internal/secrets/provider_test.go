package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapStore map[string]string

func (m mapStore) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source      SecretSource
		environment string
		expected    SecretSource
	}{
		{SourceAuto, "development", SourceEnvironment},
		{SourceAuto, "test", SourceEnvironment},
		{SourceAuto, "", SourceEnvironment},
		{SourceAuto, "production", SourceVault},
		{SourceAuto, "staging", SourceVault},
		{SourceEnvironment, "production", SourceEnvironment},
		{SourceVault, "development", SourceVault},
	}

	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.environment, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveSource(tt.source, tt.environment))
		})
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, p.Source())
	assert.False(t, p.IsVaultEnabled())

	_, err = NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.ErrorContains(t, err, "vault name required")

	_, err = NewProvider(&ProviderConfig{Source: "s3"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown secret source")
}

func TestProvider_EnvironmentSource(t *testing.T) {
	p, err := NewProvider(&ProviderConfig{Source: SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)

	t.Setenv("QUOTE_TEST_SECRET", "from-env")
	value, err := p.GetSecret(context.Background(), "QUOTE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = p.GetSecret(context.Background(), "QUOTE_TEST_MISSING")
	assert.Error(t, err)
}

func TestProvider_VaultSource(t *testing.T) {
	p := NewProviderWithStore(mapStore{"jwt-secret": "from-vault"}, zap.NewNop())
	assert.True(t, p.IsVaultEnabled())

	value, err := p.GetSecretOrEnv(context.Background(), "jwt-secret", "QUOTE_TEST_JWT")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", value)

	t.Setenv("QUOTE_TEST_JWT", "override")
	value, err = p.GetSecretOrEnv(context.Background(), "jwt-secret", "QUOTE_TEST_JWT")
	require.NoError(t, err)
	assert.Equal(t, "override", value)

	_, err = p.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

func TestVaultClient_Cache(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &VaultClient{
		logger:       zap.NewNop(),
		cacheEnabled: true,
		cacheTTL:     time.Minute,
		cache:        make(map[string]cachedSecret),
		now:          func() time.Time { return now },
	}

	v.store("db-password", "pw")
	value, ok := v.cached("db-password")
	assert.True(t, ok)
	assert.Equal(t, "pw", value)

	now = now.Add(2 * time.Minute)
	_, ok = v.cached("db-password")
	assert.False(t, ok, "expired entries are evicted")

	v.store("db-password", "pw")
	v.ClearCache()
	_, ok = v.cached("db-password")
	assert.False(t, ok)

	v.cacheEnabled = false
	v.store("api-key", "k")
	_, ok = v.cached("api-key")
	assert.False(t, ok)
}
