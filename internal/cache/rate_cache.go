package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/config"
	"go.uber.org/zap"
)

const activeRateKey = "quote-api:exchange-rate:active"

// RateCache stores the active exchange rate between requests
type RateCache interface {
	GetActiveRate(ctx context.Context) (decimal.Decimal, bool)
	SetActiveRate(ctx context.Context, rate decimal.Decimal)
	Invalidate(ctx context.Context)
}

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisRateCache keeps the active rate in Redis. Cache failures are logged
// and treated as misses; the database stays the source of truth.
type RedisRateCache struct {
	store  cmdable
	raw    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRateCache connects to Redis and verifies the connection
func NewRedisRateCache(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*RedisRateCache, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis rate cache connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &RedisRateCache{store: raw, raw: raw, ttl: cfg.CacheTTLDuration(), logger: logger}, nil
}

func newWithStore(store cmdable, ttl time.Duration, logger *zap.Logger) *RedisRateCache {
	return &RedisRateCache{store: store, ttl: ttl, logger: logger}
}

func optionsFromConfig(cfg *config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeoutDuration()
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeoutDuration()
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeoutDuration()
	}
	return opts, nil
}

// GetActiveRate returns the cached rate and whether it was present
func (c *RedisRateCache) GetActiveRate(ctx context.Context) (decimal.Decimal, bool) {
	if c == nil || c.store == nil {
		return decimal.Zero, false
	}
	val, err := c.store.Get(ctx, activeRateKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("rate cache read failed", zap.Error(err))
		}
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(val)
	if err != nil || !rate.IsPositive() {
		c.logger.Warn("discarding malformed cached rate", zap.String("value", val))
		return decimal.Zero, false
	}
	return rate, true
}

// SetActiveRate stores the rate with the configured TTL
func (c *RedisRateCache) SetActiveRate(ctx context.Context, rate decimal.Decimal) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Set(ctx, activeRateKey, rate.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached rate
func (c *RedisRateCache) Invalidate(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, activeRateKey).Err(); err != nil {
		c.logger.Warn("rate cache invalidation failed", zap.Error(err))
	}
}

// Ping checks connectivity
func (c *RedisRateCache) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool
func (c *RedisRateCache) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// NoopRateCache is used when Redis is disabled
type NoopRateCache struct{}

func (NoopRateCache) GetActiveRate(context.Context) (decimal.Decimal, bool) { return decimal.Zero, false }
func (NoopRateCache) SetActiveRate(context.Context, decimal.Decimal)          {}
func (NoopRateCache) Invalidate(context.Context)                              {}
