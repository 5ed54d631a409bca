package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/civicdex/internal/db"
)

// store is the consumer interface for the remote cache (ISP).
type store interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

type remoteBackend struct {
	store store
}

// NewRemote creates a cache over a Redis or Valkey KV store.
func NewRemote(s store, driver string, ttl time.Duration, opts ...Option) *Cache {
	return newCache(remoteBackend{store: s}, driver, ttl, opts)
}

func (r remoteBackend) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, errMiss
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (r remoteBackend) put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := r.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r remoteBackend) purge(ctx context.Context, prefix string) (int, error) {
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", prefix, err)
	}
	n := 0
	for _, k := range keys {
		if err := r.store.Del(ctx, k); err != nil {
			return n, fmt.Errorf("del %s: %w", k, err)
		}
		n++
	}
	return n, nil
}

func (r remoteBackend) ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
