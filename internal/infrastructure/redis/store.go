package redis

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	config "github.com/handyflix/streamproxy/configs"
	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// ConnState is the connection lifecycle of the cache store.
//
//	NotConfigured -> terminal (no REDIS_HOST, or an unusable port)
//	Connected     -> Connecting (failed watchdog ping or operation error)
//	Connecting    -> Connected (a reconnect ping succeeds)
//	Connecting    -> Unavailable (retry ceiling exhausted, terminal)
//
// The initial connect is attempted exactly once; if it fails the store goes
// straight to Unavailable and stays there.
type ConnState int32

const (
	StateNotConfigured ConnState = iota
	StateConnecting
	StateConnected
	StateUnavailable
)

func (s ConnState) String() string {
	switch s {
	case StateNotConfigured:
		return "not_configured"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

const (
	maxReconnectAttempts = 10
	reconnectBaseDelay   = 100 * time.Millisecond
	watchdogInterval     = 15 * time.Second
)

// Store implements ports.CacheStore over Redis. Every operation degrades
// silently: a miss when reading, a no-op when writing. Route handlers never
// learn more than the boolean Available projection.
type Store struct {
	cache  ports.Cache
	client *redis.Client
	logger *logrus.Logger
	state  atomic.Int32
	stop   chan struct{}
	// kick wakes the watchdog ahead of its tick when an operation error
	// suggests the connection is gone.
	kick chan struct{}
}

// NewStore builds the process-wide cache store. It never returns an error: a
// missing REDIS_HOST, an unusable REDIS_PORT or a failed initial connect all
// produce a store that is simply not available.
func NewStore(cfg *config.RedisConfig, logger *logrus.Logger) *Store {
	s := &Store{logger: logger, stop: make(chan struct{}), kick: make(chan struct{}, 1)}

	if cfg.Host == "" {
		logger.Info("Redis: no REDIS_HOST configured, running without cache")
		s.state.Store(int32(StateNotConfigured))
		return s
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		logger.Warn("Redis: invalid REDIS_PORT configured, running without cache")
		s.state.Store(int32(StateNotConfigured))
		return s
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		logger.WithError(err).Warn("Redis not available, running without cache")
		s.state.Store(int32(StateUnavailable))
		return s
	}

	s.client = client
	s.cache = NewRedisCache(client, "")
	s.state.Store(int32(StateConnected))
	logger.Info("Redis connected successfully")

	go s.watchdog()
	return s
}

// NewStoreWithCache wires an arbitrary ports.Cache backend as a connected
// store. Used by tests and alternate cache backends.
func NewStoreWithCache(cache ports.Cache, logger *logrus.Logger) *Store {
	s := &Store{cache: cache, logger: logger, stop: make(chan struct{}), kick: make(chan struct{}, 1)}
	s.state.Store(int32(StateConnected))
	return s
}

// State returns the current lifecycle state.
func (s *Store) State() ConnState {
	return ConnState(s.state.Load())
}

// Available implements ports.CacheStore.
func (s *Store) Available() bool {
	return s.State() == StateConnected
}

// Get implements ports.CacheStore. Any store error is logged and reported as
// a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.Available() {
		return nil, false
	}
	val, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("cache get error")
		s.noteOpError()
		return nil, false
	}
	return val, ok
}

// Set implements ports.CacheStore. Write errors are logged and dropped. A
// non-positive TTL is an entry already expired, so it is never written.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.Available() || ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("cache set error")
		s.noteOpError()
	}
}

// noteOpError flips the store onto the reconnect path so the watchdog probes
// right away instead of waiting out its tick. Without a client there is
// nothing to reconnect, so the state is left alone.
func (s *Store) noteOpError() {
	if s.client == nil {
		return
	}
	s.state.Store(int32(StateConnecting))
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Close stops the watchdog and releases the client.
func (s *Store) Close() error {
	close(s.stop)
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// watchdog pings the server periodically and drives the reconnect state
// machine when the connection drops.
func (s *Store) watchdog() {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		case <-s.kick:
		}
		if err := s.ping(); err == nil {
			// A transient operation error may have flipped the state.
			s.state.Store(int32(StateConnected))
			continue
		}
		s.state.Store(int32(StateConnecting))
		s.logger.Warn("Redis connection lost, reconnecting")
		if !s.reconnect() {
			s.state.Store(int32(StateUnavailable))
			s.logger.Warn("Redis: max reconnection attempts reached, running without cache")
			return
		}
		s.state.Store(int32(StateConnected))
		s.logger.Info("Redis reconnected")
	}
}

// reconnect retries with a linearly growing delay (attempt * 100ms) up to
// the attempt ceiling. Returns false once the ceiling is exhausted.
func (s *Store) reconnect() bool {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		select {
		case <-s.stop:
			return false
		case <-time.After(time.Duration(attempt) * reconnectBaseDelay):
		}
		if err := s.ping(); err == nil {
			return true
		}
	}
	return false
}

func (s *Store) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

var _ ports.CacheStore = (*Store)(nil)
