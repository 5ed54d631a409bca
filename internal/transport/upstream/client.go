// Package upstream is the shared HTTP client for open-data APIs: it throttles
// requests, consults the fetch cache and maps HTTP failures onto domain errors.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/civicdex/internal/domain"
	"github.com/kailas-cloud/civicdex/internal/metrics"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultRequestsPerSecond is the proactive throttle rate.
	DefaultRequestsPerSecond = 2.0
	// MaxBodyBytes caps a single upstream response.
	MaxBodyBytes = 32 << 20

	userAgent = "civicdex/1.0"
)

// Cache stores raw response bodies keyed by URL.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Put(ctx context.Context, url string, data []byte)
}

// Config holds client settings.
type Config struct {
	Name              string
	RequestsPerSecond float64
	Headers           map[string]string
	HTTPClient        *http.Client
	Cache             Cache
	Logger            *zap.Logger
}

// Client performs throttled, cached JSON GETs against one upstream API.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
	cache   Cache
	logger  *zap.Logger
}

// New creates an upstream client.
func New(cfg Config) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		name:    cfg.Name,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		headers: cfg.Headers,
		cache:   cfg.Cache,
		logger:  logger,
	}
}

// Name returns the source name used in metrics and errors.
func (c *Client) Name() string { return c.name }

// GetJSON fetches url and decodes the body into out.
// Bodies that fail to decode are never cached.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	if c.cache != nil {
		if data, ok := c.cache.Get(ctx, url); ok {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			c.logger.Warn("Discarding undecodable cached payload", zap.String("source", c.name))
		}
	}

	data, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	if c.cache != nil {
		c.cache.Put(ctx, url, data)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%s: request: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", c.name, domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, domain.NewUpstreamError(c.name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", c.name, err)
	}
	if len(data) > MaxBodyBytes {
		return nil, fmt.Errorf("%s: response exceeds %d bytes", c.name, MaxBodyBytes)
	}
	return data, nil
}
