package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already been accepted so
// a client retrying a push batch gets a conflict instead of a duplicate push.
// Keys expire after the supplied TTL; an expired key is treated as unseen.
type IdempotencyStore interface {
	// MarkProcessed records key as seen for ttl. It returns true when the key
	// was newly recorded and false when it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key has been recorded and not yet expired.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
