// Package fetchcache caches raw upstream payloads keyed by request URL.
// It never holds documents, only the bytes a source returned.
package fetchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Driver names accepted by config.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// DefaultKeyPrefix namespaces cache keys in a shared database.
const DefaultKeyPrefix = "civicdex:"

var errMiss = errors.New("fetchcache: miss")

// backend is the storage behind a Cache.
type backend interface {
	get(ctx context.Context, key string) ([]byte, error)
	put(ctx context.Context, key string, data []byte, ttl time.Duration) error
	purge(ctx context.Context, prefix string) (int, error)
	ping(ctx context.Context) error
}

// Cache is a TTL cache of upstream response bodies.
type Cache struct {
	backend    backend
	driver     string
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(p string) Option {
	return func(c *Cache) {
		if p != "" {
			c.prefix = p
		}
	}
}

// WithMetrics sets a counter vec with label "result" ("hit"/"miss").
func WithMetrics(cacheTotal *prometheus.CounterVec) Option {
	return func(c *Cache) { c.cacheTotal = cacheTotal }
}

// WithLogger sets the logger for backend failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func newCache(b backend, driver string, ttl time.Duration, opts []Option) *Cache {
	c := &Cache{
		backend: b,
		driver:  driver,
		prefix:  DefaultKeyPrefix,
		ttl:     ttl,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewNop creates a cache that never stores anything.
func NewNop() *Cache {
	return newCache(nopBackend{}, DriverNone, 0, nil)
}

// Driver returns the configured driver name.
func (c *Cache) Driver() string { return c.driver }

// Get returns the cached payload for a request URL.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool) {
	if c.driver == DriverNone {
		return nil, false
	}
	key := c.key(url)
	data, err := c.backend.get(ctx, key)
	if err != nil {
		if !errors.Is(err, errMiss) {
			c.logger.Warn("Failed to read fetch cache", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return nil, false
	}
	if len(data) == 0 {
		c.inc("miss")
		return nil, false
	}
	c.inc("hit")
	return data, true
}

// Put stores a payload. Failures are logged, never returned.
func (c *Cache) Put(ctx context.Context, url string, data []byte) {
	if c.driver == DriverNone || len(data) == 0 {
		return
	}
	key := c.key(url)
	if err := c.backend.put(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write fetch cache", zap.String("key", key), zap.Error(err))
	}
}

// Purge drops every cached payload and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	return c.backend.purge(ctx, c.keyPrefix())
}

// Ping checks backend availability.
func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.ping(ctx)
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) keyPrefix() string {
	return c.prefix + "fetch:"
}

func (c *Cache) key(url string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return c.keyPrefix() + hex.EncodeToString(h[:])
}

type nopBackend struct{}

func (nopBackend) get(context.Context, string) ([]byte, error)              { return nil, errMiss }
func (nopBackend) put(context.Context, string, []byte, time.Duration) error { return nil }
func (nopBackend) purge(context.Context, string) (int, error)               { return 0, nil }
func (nopBackend) ping(context.Context) error                               { return nil }
