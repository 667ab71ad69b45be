package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// TTL policy per route. Sources are deliberately absent: stream URLs may be
// signed and short-lived upstream, so they are fetched fresh every time.
const (
	HomepageTTL = 600 * time.Second
	SearchTTL   = 1800 * time.Second
	InfoTTL     = 3600 * time.Second
)

type CatalogService struct {
	store    ports.CacheStore
	upstream ports.UpstreamClient
	logger   *logrus.Logger
	sf       singleflight.Group
}

func NewCatalogService(store ports.CacheStore, upstream ports.UpstreamClient, logger *logrus.Logger) ports.CatalogService {
	return &CatalogService{
		store:    store,
		upstream: upstream,
		logger:   logger,
	}
}

func (s *CatalogService) Homepage(ctx context.Context) (*catalog.Response, error) {
	return s.cachedFetch(ctx, "homepage:content", HomepageTTL, catalog.ShapeData, s.upstream.FetchHomepage)
}

func (s *CatalogService) Search(ctx context.Context, query string) (*catalog.Response, error) {
	return s.cachedFetch(ctx, "search:"+query, SearchTTL, catalog.ShapeResults, func(ctx context.Context) (*catalog.Envelope, error) {
		return s.upstream.Search(ctx, query)
	})
}

func (s *CatalogService) Info(ctx context.Context, id string) (*catalog.Response, error) {
	return s.cachedFetch(ctx, "info:"+id, InfoTTL, catalog.ShapeResults, func(ctx context.Context) (*catalog.Envelope, error) {
		return s.upstream.GetInfo(ctx, id)
	})
}

// Sources bypasses the cache entirely. A non-success envelope counts as an
// upstream failure; a success envelope without processedSources maps to an
// empty list.
func (s *CatalogService) Sources(ctx context.Context, id string, season, episode int) ([]catalog.Source, error) {
	upstreamRequests.WithLabelValues("sources").Inc()
	env, err := s.upstream.GetSources(ctx, id, season, episode)
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("sources fetch failed")
		return nil, err
	}
	sources, ok := catalog.MapSources(env)
	if !ok {
		s.logger.WithFields(logrus.Fields{"id": id, "upstream_status": env.Status}).Warn("sources envelope not successful")
		return nil, &EnvelopeError{UpstreamStatus: env.Status}
	}
	return sources, nil
}

func (s *CatalogService) DownloadURL(trailing string) string {
	return s.upstream.DownloadURL(trailing)
}

// cachedFetch is the cache-aside policy every cached route instantiates:
// cache get, upstream call on miss, transform, write-through on success.
// Failures are never written to the cache. Concurrent misses for the same
// key are coalesced into a single upstream call.
func (s *CatalogService) cachedFetch(ctx context.Context, key string, ttl time.Duration, shape catalog.Shape, fetch func(context.Context) (*catalog.Envelope, error)) (*catalog.Response, error) {
	if cached, ok := s.store.Get(ctx, key); ok {
		var resp catalog.Response
		if err := json.Unmarshal(cached, &resp); err == nil {
			cacheHits.WithLabelValues(keyRoute(key)).Inc()
			s.logger.WithField("key", key).Debug("cache hit")
			return &resp, nil
		}
		// Undecodable entry: fall through to a fresh fetch.
		s.logger.WithField("key", key).Debug("cache entry undecodable, refetching")
	}
	cacheMisses.WithLabelValues(keyRoute(key)).Inc()

	v, err, _ := s.sf.Do(key, func() (any, error) {
		upstreamRequests.WithLabelValues(keyRoute(key)).Inc()
		env, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if !env.IsSuccess() {
			// A failed envelope is an upstream failure; it is surfaced as
			// the uniform error shape and never cached.
			return nil, &EnvelopeError{UpstreamStatus: env.Status}
		}
		resp := catalog.Transform(env, shape)
		if b, err := json.Marshal(resp); err == nil {
			s.store.Set(ctx, key, b, ttl)
		}
		return resp, nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("upstream fetch failed")
		return nil, err
	}
	return v.(*catalog.Response), nil
}

// keyRoute maps a cache key to its route label for metrics.
func keyRoute(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

// EnvelopeError reports an upstream envelope whose status was not "success".
type EnvelopeError struct {
	UpstreamStatus string
}

func (e *EnvelopeError) Error() string {
	return "upstream returned status " + e.UpstreamStatus
}
