package health

import (
	"context"
	"errors"

	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/handyflix/streamproxy/internal/infrastructure/redis"
)

// ErrDisabled marks a dependency that was never configured. The health
// endpoint reports it without degrading the overall status.
var ErrDisabled = errors.New("dependency disabled")

var errCacheUnavailable = errors.New("cache store unavailable")

// cacheHealthChecker reports on the cache store's availability projection.
// No ping is issued here; the store's own watchdog owns connection probing.
type cacheHealthChecker struct{ store *redis.Store }

func (c *cacheHealthChecker) Name() string { return "cache" }

func (c *cacheHealthChecker) Check(ctx context.Context) error {
	switch c.store.State() {
	case redis.StateNotConfigured:
		return ErrDisabled
	case redis.StateConnected:
		return nil
	default:
		return errCacheUnavailable
	}
}

// NewCacheHealthChecker creates a health checker for the cache store.
func NewCacheHealthChecker(store *redis.Store) ports.HealthChecker {
	return &cacheHealthChecker{store: store}
}
