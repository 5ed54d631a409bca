package fetchcache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryBackend struct {
	c *gocache.Cache
}

// NewMemory creates a process-local cache backed by go-cache.
func NewMemory(ttl time.Duration, opts ...Option) *Cache {
	exp := ttl
	if exp <= 0 {
		exp = gocache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl < cleanup {
		cleanup = ttl
	}
	return newCache(memoryBackend{c: gocache.New(exp, cleanup)}, DriverMemory, ttl, opts)
}

func (m memoryBackend) get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, errMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, errMiss
	}
	return data, nil
}

func (m memoryBackend) put(_ context.Context, key string, data []byte, _ time.Duration) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.c.SetDefault(key, buf)
	return nil
}

func (m memoryBackend) purge(_ context.Context, prefix string) (int, error) {
	n := 0
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
			n++
		}
	}
	return n, nil
}

func (memoryBackend) ping(context.Context) error { return nil }
