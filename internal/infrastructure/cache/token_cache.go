package cache

import (
	"context"
	"time"
)

// TokenCache stores short-lived marketplace access tokens keyed by
// credential. Implementations must expire entries at the supplied TTL so a
// revoked or rotated credential never serves a stale token for long.
type TokenCache interface {
	// Get returns the cached token for key, or ok=false when absent or expired.
	Get(ctx context.Context, key string) (token string, ok bool, err error)

	// Set stores token under key for ttl.
	Set(ctx context.Context, key string, token string, ttl time.Duration) error

	// Delete removes the token for key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
