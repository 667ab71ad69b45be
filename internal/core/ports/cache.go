package ports

import (
	"context"
	"time"
)

// Cache defines a minimal key-value cache contract.
// Implementations should degrade gracefully (returning an error without crashing callers)
// so that application logic can fall back to the upstream fetch.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL (0 or negative means no expiration if supported).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheStore is the availability-aware capability route logic consumes. A
// store that is not configured, or whose connection is gone, answers every
// Get with a miss and turns Set into a no-op; callers never see an error.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Available is the boolean projection of the store's connection state.
	Available() bool
}
