package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenCache implements TokenCache on Redis. This is the deployment
// default: multiple API instances share one token per credential instead of
// each racing the marketplace's token endpoint.
type RedisTokenCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTokenCache connects to Redis and returns a token cache backed by it.
func NewRedisTokenCache(cfg RedisConfig) (*RedisTokenCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTokenCache{
		client:    client,
		keyPrefix: "market:token:",
	}, nil
}

// NewRedisTokenCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisTokenCacheWithClient(client *redis.Client, keyPrefix string) *RedisTokenCache {
	if keyPrefix == "" {
		keyPrefix = "market:token:"
	}
	return &RedisTokenCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached token for key, or ok=false when absent or expired.
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached token: %w", err)
	}
	return token, true, nil
}

// Set stores token under key for ttl.
func (c *RedisTokenCache) Set(ctx context.Context, key string, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

// Delete removes the token for key.
func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to evict cached token: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}

var _ TokenCache = (*RedisTokenCache)(nil)
