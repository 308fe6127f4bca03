package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/infrastructure/config"
)

// Factory builds the caches the integration layer needs, preferring Redis and
// optionally falling back to in-process implementations when Redis is down.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether the factory falls back to in-memory
// implementations when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a cache factory for the given Redis configuration.
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Factory) redisCfg() RedisConfig {
	return RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}
}

// TokenCache returns the marketplace token cache. A per-process cache still
// works when Redis is down, each instance just fetches its own tokens.
func (f *Factory) TokenCache() (TokenCache, error) {
	store, err := NewRedisTokenCache(f.redisCfg())
	if err == nil {
		f.logger.Info("using Redis token cache")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for token cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory token cache; "+
		"each instance will request its own marketplace tokens",
		zap.Error(err),
	)
	return NewInMemoryTokenCache(), nil
}

// IdempotencyStore returns the push request dedupe store. The in-memory
// fallback does not share state across instances, so a retried batch routed
// to another instance may be pushed twice.
func (f *Factory) IdempotencyStore() (IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(f.redisCfg())
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"duplicate pushes are possible across instances",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
