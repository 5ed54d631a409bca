package civicdex

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/civicdex/internal/repository/fetchcache"
	"github.com/kailas-cloud/civicdex/internal/transport/clerk"
	"github.com/kailas-cloud/civicdex/internal/transport/socrata"
)

// Default upstream endpoints.
const (
	DefaultOpenDataURL = socrata.DefaultBaseURL
	DefaultClerkURL    = clerk.DefaultBaseURL
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	openData        bool
	openDataURL     string
	appToken        string
	datasets        []string
	clerk           bool
	clerkURL        string
	recentLimit     int
	categoryLimits  map[string]int
	rps             float64
	httpClient      *http.Client
	static          []Document
	limitPerSource  int
	sourceTimeout   time.Duration
	perCategory     int
	maxContextDocs  int
	historyLimit    int
	cacheDriver     string
	cacheAddrs      []string
	cachePassword   string
	cacheTTL        time.Duration
	cacheKeyPrefix  string
	readinessTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		openData:        true,
		openDataURL:     socrata.DefaultBaseURL,
		clerk:           true,
		clerkURL:        clerk.DefaultBaseURL,
		recentLimit:     clerk.DefaultRecentLimit,
		categoryLimits:  clerk.DefaultCategoryLimits(),
		cacheDriver:     fetchcache.DriverNone,
		cacheTTL:        15 * time.Minute,
		readinessTimeout: defaultReadinessTimeout,
	}
}

// WithOpenData configures the open data portal. An empty baseURL keeps the
// default; no datasets means all known datasets.
func WithOpenData(baseURL, appToken string, datasets ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openData = true
		if baseURL != "" {
			c.openDataURL = baseURL
		}
		c.appToken = appToken
		c.datasets = datasets
	})
}

// WithoutOpenData disables the open data portal sources.
func WithoutOpenData() Option {
	return optionFunc(func(c *clientConfig) { c.openData = false })
}

// WithClerk configures the City Clerk legislation API.
// An empty baseURL keeps the default.
func WithClerk(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.clerk = true
		if baseURL != "" {
			c.clerkURL = baseURL
		}
	})
}

// WithClerkLimits sets the recent-matters limit and per-category limits.
// A nil map keeps the default categories; a zero limit drops that query.
func WithClerkLimits(recent int, categories map[string]int) Option {
	return optionFunc(func(c *clientConfig) {
		c.recentLimit = recent
		if categories != nil {
			c.categoryLimits = categories
		}
	})
}

// WithoutClerk disables the legislation sources.
func WithoutClerk() Option {
	return optionFunc(func(c *clientConfig) { c.clerk = false })
}

// WithDocuments adds a fixed set of documents loaded alongside the upstream
// sources. Combined with WithoutOpenData and WithoutClerk it runs fully offline.
func WithDocuments(docs ...Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.static = append(c.static, docs...)
	})
}

// WithRequestsPerSecond throttles each upstream API. Default: 2.
func WithRequestsPerSecond(rps float64) Option {
	return optionFunc(func(c *clientConfig) { c.rps = rps })
}

// WithHTTPClient overrides the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = hc })
}

// WithLimitPerSource sets how many records each source fetches on Load.
// Default: 50.
func WithLimitPerSource(n int) Option {
	return optionFunc(func(c *clientConfig) { c.limitPerSource = n })
}

// WithSourceTimeout bounds one source fetch. Default: 30s.
func WithSourceTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.sourceTimeout = d })
}

// WithPerCategoryTarget sets the default bucket size for SelectDiverse.
// Default: 5.
func WithPerCategoryTarget(n int) Option {
	return optionFunc(func(c *clientConfig) { c.perCategory = n })
}

// WithMaxContextDocs sets the default number of documents behind an answer.
// Default: 3.
func WithMaxContextDocs(n int) Option {
	return optionFunc(func(c *clientConfig) { c.maxContextDocs = n })
}

// WithHistoryLimit caps the conversation log. Oldest messages are evicted.
func WithHistoryLimit(n int) Option {
	return optionFunc(func(c *clientConfig) { c.historyLimit = n })
}

// WithMemoryCache caches raw upstream responses in process for ttl.
func WithMemoryCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = fetchcache.DriverMemory
		c.cacheTTL = ttl
	})
}

// WithValkeyCache caches raw upstream responses in a Valkey instance.
func WithValkeyCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = fetchcache.DriverValkey
		c.cacheAddrs = addrList(addr)
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithRedisCache caches raw upstream responses in a Redis instance.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = fetchcache.DriverRedis
		c.cacheAddrs = addrList(addr)
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithCacheKeyPrefix namespaces cache keys in a shared database.
func WithCacheKeyPrefix(p string) Option {
	return optionFunc(func(c *clientConfig) { c.cacheKeyPrefix = p })
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func addrList(addr string) []string {
	if addr == "" {
		return nil
	}
	return []string{addr}
}
