package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/civicdex/internal/domain"
	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

// Ingestion defaults.
const (
	DefaultLimitPerSource = 50
	DefaultSourceTimeout  = 30 * time.Second
)

// SourceInfo describes a configured source.
type SourceInfo struct {
	Name     string
	Endpoint string
}

// Service fetches every source concurrently and swaps the document store
// only when the whole run has finished and produced at least one document.
type Service struct {
	sources  []Source
	store    DocumentWriter
	limit    int
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
	running  atomic.Bool
	last     atomic.Pointer[batch.Report]
	runTotal *prometheus.CounterVec
	docGauge *prometheus.GaugeVec
}

// Option configures a Service.
type Option func(*Service)

// WithLimitPerSource sets the default per-source record limit.
func WithLimitPerSource(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithSourceTimeout bounds each source fetch.
func WithSourceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock injects the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets a run counter (label "status") and a per-source document gauge (label "source").
func WithMetrics(runTotal *prometheus.CounterVec, docGauge *prometheus.GaugeVec) Option {
	return func(s *Service) {
		s.runTotal = runTotal
		s.docGauge = docGauge
	}
}

// New creates an ingestion service.
func New(sources []Source, store DocumentWriter, opts ...Option) *Service {
	s := &Service{
		sources: sources,
		store:   store,
		limit:   DefaultLimitPerSource,
		timeout: DefaultSourceTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sources lists the configured sources in fetch order.
func (s *Service) Sources() []SourceInfo {
	out := make([]SourceInfo, len(s.sources))
	for i, src := range s.sources {
		out[i] = SourceInfo{Name: src.Name(), Endpoint: src.Endpoint()}
	}
	return out
}

// LastReport returns the most recent run report.
func (s *Service) LastReport() (batch.Report, bool) {
	r := s.last.Load()
	if r == nil {
		return batch.Report{}, false
	}
	return *r, true
}

// Ingest runs one ingestion. limitPerSource <= 0 uses the configured default.
// A failing source is recorded in the report; if every source fails or nothing
// was fetched the current snapshot is kept and domain.ErrNoDocuments is returned.
func (s *Service) Ingest(ctx context.Context, limitPerSource int) (batch.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return batch.Report{}, domain.ErrIngestInProgress
	}
	defer s.running.Store(false)

	if limitPerSource <= 0 {
		limitPerSource = s.limit
	}

	report := batch.Report{StartedAt: s.now()}
	results := make([]batch.Result, len(s.sources))
	fetched := make([][]domdoc.Document, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			results[i], fetched[i] = s.fetch(ctx, src, limitPerSource)
			return nil
		})
	}
	_ = g.Wait()

	var all []domdoc.Document
	var errs []error
	for i := range results {
		report.Sources = append(report.Sources, results[i])
		if err := results[i].Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", results[i].Source(), err))
			continue
		}
		all = append(all, fetched[i]...)
	}
	report.Fetched = len(all)

	if len(all) == 0 {
		report.FinishedAt = s.now()
		s.finish(&report, "empty")
		errs = append([]error{domain.ErrNoDocuments}, errs...)
		return report, fmt.Errorf("ingest: %w", errors.Join(errs...))
	}

	swap, err := s.store.Replace(all)
	report.FinishedAt = s.now()
	if err != nil {
		s.finish(&report, "error")
		return report, fmt.Errorf("ingest: %w", err)
	}
	report.Loaded = swap.Loaded
	report.Duplicates = swap.Duplicates
	report.Applied = true

	status := "ok"
	if report.Failed() > 0 {
		status = "partial"
	}
	s.finish(&report, status)

	s.logger.Info("Ingestion complete",
		zap.Int("sources", len(report.Sources)),
		zap.Int("failed_sources", report.Failed()),
		zap.Int("fetched", report.Fetched),
		zap.Int("loaded", report.Loaded),
		zap.Int("duplicates", report.Duplicates),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// Run refreshes the store every interval until ctx is canceled.
// Failures are logged and the previous snapshot stays in place.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Ingest(ctx, 0); err != nil {
				s.logger.Warn("Scheduled ingestion failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) fetch(ctx context.Context, src Source, limit int) (batch.Result, []domdoc.Document) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	docs, err := src.Fetch(ctx, limit)
	d := time.Since(start)
	if err != nil {
		s.logger.Warn("Source fetch failed",
			zap.String("source", src.Name()),
			zap.Duration("duration", d),
			zap.Error(err),
		)
		return batch.NewError(src.Name(), err, d), nil
	}
	if s.docGauge != nil {
		s.docGauge.WithLabelValues(src.Name()).Set(float64(len(docs)))
	}
	return batch.NewOK(src.Name(), len(docs), d), docs
}

func (s *Service) finish(r *batch.Report, status string) {
	s.last.Store(r)
	if s.runTotal != nil {
		s.runTotal.WithLabelValues(status).Inc()
	}
}
