// Package cache is the query cache between page controllers and the API:
// results are kept per viewer and key for a staleness window, and concurrent
// fetches of the same key share one request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"smilegift/internal/observability"
)

// Backend stores encoded query results.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// AnonymousViewer scopes the entries fetched without a session.
const AnonymousViewer = "anon"

// QueryCache de-duplicates and caches query results.
type QueryCache struct {
	backend Backend
	group   singleflight.Group
	viewer  func() string
}

func New(backend Backend) *QueryCache {
	return &QueryCache{backend: backend}
}

// ScopeTo partitions every key by viewer(), the id of the signed-in user or
// "" when there is none. Posts carry IsLikedByUser and leaderboards carry
// IsCurrentUser, so one viewer's entries must never answer another's query.
// Call it before the cache is shared.
func (c *QueryCache) ScopeTo(viewer func() string) {
	c.viewer = viewer
}

func (c *QueryCache) scoped(key string) string {
	if c.viewer == nil {
		return key
	}
	v := c.viewer()
	if v == "" {
		v = AnonymousViewer
	}
	return v + "/" + key
}

// GetJSON loads key into dest. Returns (true, nil) on a hit and (false, nil) on a miss.
func (c *QueryCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	return c.get(ctx, c.scoped(key), dest)
}

// SetJSON stores v under key for ttl.
func (c *QueryCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	return c.set(ctx, c.scoped(key), v, ttl)
}

func (c *QueryCache) get(ctx context.Context, fullKey string, dest any) (bool, error) {
	data, ok, err := c.backend.Get(ctx, fullKey)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *QueryCache) set(ctx context.Context, fullKey string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, fullKey, b, ttl)
}

// Invalidate drops the current viewer's entries whose key starts with prefix.
func (c *QueryCache) Invalidate(ctx context.Context, prefix string) error {
	return c.backend.DeletePrefix(ctx, c.scoped(prefix))
}

// Fetch returns the cached value of key when it is younger than stale, and
// calls fetch otherwise. Callers asking for the same key while a fetch is in
// flight wait for it instead of issuing their own. A failed fetch is not
// cached, and with stale <= 0 nothing is: every call after the in-flight one
// fetches again.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, stale time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	// The viewer is read once so a sign-in during the fetch cannot file the
	// result under the new viewer.
	fullKey := c.scoped(key)
	if stale > 0 {
		var cached T
		found, err := c.get(ctx, fullKey, &cached)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "query cache read failed", "key", key, "error", err)
		}
		if found {
			observability.QueryCacheEvents.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}

	v, err, shared := c.group.Do(fullKey, func() (any, error) {
		observability.QueryCacheEvents.WithLabelValues("miss").Inc()
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if stale <= 0 {
			return value, nil
		}
		// best-effort
		if err := c.set(ctx, fullKey, value, stale); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "query cache write failed", "key", key, "error", err)
		}
		return value, nil
	})
	if shared {
		observability.QueryCacheEvents.WithLabelValues("shared").Inc()
	}
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query cache: unexpected %T for key %s", v, key)
	}
	return value, nil
}

// Open builds a QueryCache on the named backend ("memory" or "redis").
func Open(ctx context.Context, kind, redisURL string) (*QueryCache, func() error, error) {
	switch kind {
	case "", "memory":
		return New(NewMemoryBackend()), func() error { return nil }, nil
	case "redis":
		backend, err := DialRedis(ctx, redisURL)
		if err != nil {
			return nil, nil, err
		}
		return New(backend), backend.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown query cache %q", kind)
	}
}
