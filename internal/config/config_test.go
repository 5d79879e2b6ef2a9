package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found: " + name)
}

func (f fakeSecrets) GetSecretOrEnv(ctx context.Context, name, envName string) (string, error) {
	return f.GetSecret(ctx, name)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.False(t, cfg.DataWarehouse.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Contains(t, cfg.RateLimit.WhitelistPaths, "/health")
	assert.Equal(t, "0 0 6 1 * *", cfg.Jobs.BudgetReportCron)
	assert.Equal(t, 24, cfg.Jobs.ArchiveRetention)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, []string{"/api/v1/reports/"}, cfg.Security.DownloadPaths)
	assert.Equal(t, "no-store", cfg.Security.DownloadCacheControl)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeoutDuration())
	assert.Equal(t, time.Minute, cfg.Server.RequestTimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTLDuration())
	assert.Equal(t, 2*time.Minute, cfg.Jobs.BudgetReportTimeoutDuration())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ADMIN_API_KEY", "key-from-env")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATAWAREHOUSE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "key-from-env", cfg.ApiKey.Value)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.True(t, cfg.DataWarehouse.Enabled)
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "quotes", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=quotes sslmode=require", d.ConnectionString())
}

func TestApplySecrets(t *testing.T) {
	t.Run("resolves credentials", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Host: "localhost", User: "default"}}
		err := applySecrets(context.Background(), cfg, fakeSecrets{
			"POSTGRES-HOST":             "db.internal",
			"POSTGRES-PASSWORD":         "s3cret",
			"jwt-secret":                "signing-key",
			"admin-api-key":             "api-key",
			"storage-connection-string": "DefaultEndpointsProtocol=https",
		})
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "default", cfg.Database.User, "optional secrets keep the configured value")
		assert.Equal(t, "s3cret", cfg.Database.Password)
		assert.Equal(t, "signing-key", cfg.Auth.JWTSecret)
		assert.Equal(t, "api-key", cfg.ApiKey.Value)
		assert.Equal(t, "DefaultEndpointsProtocol=https", cfg.Storage.CloudConnectionString)
		assert.Empty(t, cfg.Redis.Password)
	})

	t.Run("database password is required", func(t *testing.T) {
		err := applySecrets(context.Background(), &Config{}, fakeSecrets{"jwt-secret": "k"})
		assert.ErrorContains(t, err, "database password")
	})

	t.Run("jwt secret is required", func(t *testing.T) {
		err := applySecrets(context.Background(), &Config{}, fakeSecrets{"POSTGRES-PASSWORD": "p"})
		assert.ErrorContains(t, err, "jwt secret")
	})
}

func TestLoadDataWarehouseSecrets(t *testing.T) {
	cfg := &Config{}
	err := loadDataWarehouseSecrets(context.Background(), cfg, fakeSecrets{
		"WAREHOUSE-URL":      "sqlserver://dw.internal:1433?database=erp",
		"WAREHOUSE-USERNAME": "reader",
		"WAREHOUSE-PASSWORD": "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader", cfg.DataWarehouse.User)

	err = loadDataWarehouseSecrets(context.Background(), &Config{}, fakeSecrets{"WAREHOUSE-URL": "x"})
	assert.ErrorContains(t, err, "WAREHOUSE-USERNAME")
}
