package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spectrum-media/quote-api/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	DataWarehouse DataWarehouseConfig
	Auth          AuthConfig
	ApiKey        ApiKeyConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Jobs          JobsConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	// AutoMigrate runs gorm AutoMigrate on startup (development convenience;
	// goose migrations are authoritative)
	AutoMigrate bool
	// Seed creates the default expense types and exchange rate when missing
	Seed bool
}

// DataWarehouseConfig holds configuration for the ERP data warehouse (MS SQL Server).
// The connection is optional and read-only; it backs budget reconciliation.
type DataWarehouseConfig struct {
	Enabled  bool
	URL      string // host:port/database
	User     string
	Password string
	// LedgerTable is the fully qualified general ledger table holding postings per internal order
	LedgerTable     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	QueryTimeout    int // seconds
}

// AuthConfig configures bearer token validation. Tokens are issued elsewhere.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

type ApiKeyConfig struct {
	Value string
}

// RedisConfig configures the optional cache used for the active exchange rate
type RedisConfig struct {
	Enabled      bool
	URL          string
	Address      string
	Password     string
	DB           int
	PoolSize     int
	CacheTTL     int // seconds
	DialTimeout  int // seconds
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
	// Output is a comma separated list of zap sinks
	Output string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
	// DownloadPaths are path prefixes serving report and archive files
	DownloadPaths []string
	// DownloadCacheControl is sent on download responses instead of the API default
	DownloadCacheControl string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the limit for authenticated requests (per user)
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// JobsConfig controls the background scheduler
type JobsConfig struct {
	Enabled bool
	// BudgetReportCron is the schedule for archiving the budget execution workbook
	BudgetReportCron string
	// BudgetReportTimeout bounds a single archive run (seconds)
	BudgetReportTimeout int
	// ArchiveRetention is how many archived workbooks to keep per report kind
	ArchiveRetention int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DataWarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (d *DataWarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

func (r *RedisConfig) CacheTTLDuration() time.Duration {
	return time.Duration(r.CacheTTL) * time.Second
}

func (r *RedisConfig) DialTimeoutDuration() time.Duration {
	return time.Duration(r.DialTimeout) * time.Second
}

func (r *RedisConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(r.ReadTimeout) * time.Second
}

func (r *RedisConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(r.WriteTimeout) * time.Second
}

// BudgetReportTimeoutDuration returns the archive job timeout as duration
func (j *JobsConfig) BudgetReportTimeoutDuration() time.Duration {
	return time.Duration(j.BudgetReportTimeout) * time.Second
}

// Load loads configuration from file and environment variables.
// It does not contact the secret store; use LoadWithSecrets for that.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("DATAWAREHOUSE_ENABLED") {
		cfg.DataWarehouse.Enabled = true
	}
	if url := v.GetString("REDIS_URL"); url != "" && cfg.Redis.URL == "" {
		cfg.Redis.URL = url
		cfg.Redis.Enabled = true
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
// With secrets.source "auto", development reads environment variables and every
// other environment reads Azure Key Vault.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	source := secrets.SecretSource(cfg.Secrets.Source)
	if source == "" {
		source = secrets.SourceAuto
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       source,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if !provider.IsVaultEnabled() {
		logger.Info("using environment variables for secrets",
			zap.String("environment", cfg.App.Environment))
		return cfg, nil
	}

	logger.Info("loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName))

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	if cfg.DataWarehouse.Enabled {
		if err := loadDataWarehouseSecrets(ctx, cfg, provider); err != nil {
			// The warehouse only backs reconciliation; startup continues without it
			logger.Warn("failed to load data warehouse secrets", zap.Error(err))
		}
	}

	logger.Info("secrets loaded from vault")
	return cfg, nil
}

// SecretGetter is the subset of the secrets provider used while loading config
type SecretGetter interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
	GetSecret(ctx context.Context, secretName string) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, provider SecretGetter) error {
	if host, err := provider.GetSecretOrEnv(ctx, "POSTGRES-HOST", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if user, err := provider.GetSecretOrEnv(ctx, "POSTGRES-USER", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	password, err := provider.GetSecretOrEnv(ctx, "POSTGRES-PASSWORD", "DATABASE_PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to load database password: %w", err)
	}
	cfg.Database.Password = password

	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	secret, err := provider.GetSecretOrEnv(ctx, "jwt-secret", "JWT_SECRET")
	if err != nil {
		return fmt.Errorf("failed to load jwt secret: %w", err)
	}
	cfg.Auth.JWTSecret = secret

	if apiKey, err := provider.GetSecretOrEnv(ctx, "admin-api-key", "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.ApiKey.Value = apiKey
	}
	if connStr, err := provider.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}
	if redisPassword, err := provider.GetSecretOrEnv(ctx, "redis-password", "REDIS_PASSWORD"); err == nil && redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	return nil
}

// loadDataWarehouseSecrets loads warehouse credentials from the vault only
func loadDataWarehouseSecrets(ctx context.Context, cfg *Config, provider SecretGetter) error {
	url, err := provider.GetSecret(ctx, "WAREHOUSE-URL")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-URL: %w", err)
	}
	cfg.DataWarehouse.URL = url

	user, err := provider.GetSecret(ctx, "WAREHOUSE-USERNAME")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-USERNAME: %w", err)
	}
	cfg.DataWarehouse.User = user

	password, err := provider.GetSecret(ctx, "WAREHOUSE-PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to get WAREHOUSE-PASSWORD: %w", err)
	}
	cfg.DataWarehouse.Password = password

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Quote API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "quotes")
	v.SetDefault("database.user", "quotes_user")
	v.SetDefault("database.password", "quotes_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.autoMigrate", false)
	v.SetDefault("database.seed", true)

	v.SetDefault("dataWarehouse.enabled", false)
	v.SetDefault("dataWarehouse.ledgerTable", "dbo.erp_generalledgertransaction")
	v.SetDefault("dataWarehouse.maxOpenConns", 10)
	v.SetDefault("dataWarehouse.maxIdleConns", 2)
	v.SetDefault("dataWarehouse.connMaxLifetime", 300)
	v.SetDefault("dataWarehouse.queryTimeout", 30)

	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.cacheTTL", 600)
	v.SetDefault("redis.dialTimeout", 5)
	v.SetDefault("redis.readTimeout", 3)
	v.SetDefault("redis.writeTimeout", 3)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "reports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Content-Disposition", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")
	v.SetDefault("security.downloadPaths", []string{"/api/v1/reports/"})
	v.SetDefault("security.downloadCacheControl", "no-store")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.budgetReportCron", "0 0 6 1 * *") // 06:00 on the first day of each month
	v.SetDefault("jobs.budgetReportTimeout", 120)
	v.SetDefault("jobs.archiveRetention", 24)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
