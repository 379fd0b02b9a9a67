// Package tokenstore persists the bearer token under a single fixed key.
package tokenstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Key is the fixed storage key of the bearer token.
const Key = "token"

// Store persists a single bearer token. Get returns "" when no token is stored.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Options selects and configures a Store implementation.
type Options struct {
	Kind     string // file, redis or memory
	FilePath string
	RedisURL string
}

// Open builds the Store described by opts. The returned close function releases
// any connection the store holds.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Kind {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file", "":
		return NewFileStore(opts.FilePath), noop, nil
	case "redis":
		client, err := newRedisClient(opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis token store unavailable: %w", err)
		}
		return NewRedisStore(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", opts.Kind)
	}
}

func newRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}
