package backend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

const (
	queryKeyPrefix = "query:"
	// sharedCallTimeout caps a coalesced call once it no longer follows any
	// single caller's context.
	sharedCallTimeout = 30 * time.Second
)

// ResultCache stores serialized envelopes by key.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CachedBackend decorates a Backend with per-caller GET coalescing and a
// short-lived result cache. Only successful envelopes are cached; cache
// failures degrade to a direct call.
type CachedBackend struct {
	next  ports.Backend
	cache ResultCache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

var (
	_ ports.Backend          = (*CachedBackend)(nil)
	_ ports.QueryInvalidator = (*CachedBackend)(nil)
)

// NewCachedBackend wraps next. A nil cache or non-positive ttl disables
// caching but keeps in-flight coalescing.
func NewCachedBackend(next ports.Backend, cache ResultCache, ttl time.Duration, log zerolog.Logger) *CachedBackend {
	return &CachedBackend{next: next, cache: cache, ttl: ttl, log: log}
}

type flightResult struct {
	env domain.Envelope[json.RawMessage]
	err error
}

// Do serves GETs from the cache or a coalesced call; everything else passes through.
func (b *CachedBackend) Do(ctx context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
	if req.Method != "" && req.Method != http.MethodGet {
		return b.next.Do(ctx, req)
	}

	key := queryKey(req)
	caching := b.cacheEnabled() && !req.NoStore
	if caching {
		if env, ok := b.lookup(ctx, key); ok {
			metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
			return env, nil
		}
	}

	// The shared call must outlive whichever caller started it; each caller
	// still stops waiting when its own context ends.
	ch := b.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		env, err := b.next.Do(flightCtx, req)
		if err == nil && env.IsSuccess && caching {
			b.store(flightCtx, key, env)
		}
		return flightResult{env: env, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return domain.Envelope[json.RawMessage]{}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			metrics.QueryCacheTotal.WithLabelValues("shared").Inc()
		} else {
			metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		}
		res := r.Val.(flightResult)
		return res.env, res.err
	}
}

// Invalidate drops the caller's cached GETs whose path starts with pathPrefix.
func (b *CachedBackend) Invalidate(ctx context.Context, token, pathPrefix string) error {
	if b.cache == nil {
		return nil
	}
	return b.cache.DeletePrefix(ctx, callerPrefix(token)+pathPrefix)
}

func (b *CachedBackend) cacheEnabled() bool {
	return b.cache != nil && b.ttl > 0
}

func (b *CachedBackend) lookup(ctx context.Context, key string) (domain.Envelope[json.RawMessage], bool) {
	var env domain.Envelope[json.RawMessage]
	raw, found, err := b.cache.Get(ctx, key)
	if err != nil {
		b.log.Warn().Err(err).Msg("query cache read failed, calling backend")
		return env, false
	}
	if !found {
		return env, false
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		b.log.Warn().Err(err).Msg("discarding unreadable cache entry")
		return env, false
	}
	return env, true
}

func (b *CachedBackend) store(ctx context.Context, key string, env domain.Envelope[json.RawMessage]) {
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := b.cache.Set(ctx, key, raw, b.ttl); err != nil {
		b.log.Warn().Err(err).Msg("query cache write failed")
	}
}

// queryKey scopes a GET to its caller. The token is hashed so raw
// credentials never leave the process.
func queryKey(req ports.BackendRequest) string {
	key := callerPrefix(req.Token) + req.Path
	if len(req.Query) > 0 {
		key += "?" + req.Query.Encode()
	}
	return key
}

func callerPrefix(token string) string {
	if token == "" {
		return queryKeyPrefix + "anon:"
	}
	sum := blake2b.Sum256([]byte(token))
	return queryKeyPrefix + hex.EncodeToString(sum[:16]) + ":"
}
