package civicdex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type sdkMetrics struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	documents   prometheus.Gauge
	lastRefresh prometheus.Gauge
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "civicdex", Subsystem: "sdk", Name: name, Help: help}
	}
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("operations_total", "SDK calls by operation and outcome.")),
			[]string{"operation", "status"},
		),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civicdex",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call latency. Refresh includes upstream fetches.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"operation"}),
		documents: prometheus.NewGauge(
			prometheus.GaugeOpts(opts("documents", "Documents held after the last applied load.")),
		),
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts(opts("last_refresh_timestamp_seconds", "Unix time of the last applied load.")),
		),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.calls),
		registerOrReuse(reg, &m.latency),
		registerOrReuse(reg, &m.documents),
		registerOrReuse(reg, &m.lastRefresh),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers *c, or swaps in the collector already registered
// under the same descriptor so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("civicdex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("civicdex: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome buckets an error into a low-cardinality status label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, ErrNoDocuments):
		return "empty"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}

// observer logs and counts SDK calls. A nil observer, logger or metrics set
// is valid and skips that half.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

// observe records one call. attrs are slog key/value pairs for the log line.
func (o *observer) observe(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	status := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, status).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}

	args := make([]any, 0, 6+len(attrs))
	args = append(args, "op", op, "status", status, "duration", elapsed)
	args = append(args, attrs...)
	if err != nil {
		o.logger.Warn("civicdex call failed", append(args, "error", err)...)
		return
	}
	o.logger.Debug("civicdex call", args...)
}

// refreshed records an applied load of n documents.
func (o *observer) refreshed(n int, at time.Time) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.documents.Set(float64(n))
	o.metrics.lastRefresh.Set(float64(at.Unix()))
}
