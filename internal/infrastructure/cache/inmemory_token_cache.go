package cache

import (
	"context"
	"sync"
	"time"
)

// tokenEntry represents a stored token with expiration
type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryTokenCache implements TokenCache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryTokenCache struct {
	mu        sync.RWMutex
	entries   map[string]tokenEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryTokenCache creates a new in-memory token cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryTokenCache() *InMemoryTokenCache {
	cache := &InMemoryTokenCache{
		entries:  make(map[string]tokenEntry),
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached token for key, or ok=false when absent or expired.
func (c *InMemoryTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return "", false, nil
	}

	// Check if entry has expired
	if time.Now().After(e.expiresAt) {
		return "", false, nil
	}

	return e.token, true, nil
}

// Set stores token under key for ttl.
func (c *InMemoryTokenCache) Set(ctx context.Context, key string, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = tokenEntry{
		token:     token,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes the token for key.
func (c *InMemoryTokenCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryTokenCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryTokenCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryTokenCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryTokenCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ TokenCache = (*InMemoryTokenCache)(nil)
