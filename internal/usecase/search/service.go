package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/civicdex/internal/domain"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
)

// Diversity selector defaults.
const (
	DefaultPerCategoryTarget = 5
	// MinPerQueryLimit is the floor for the matcher limit used per diverse pair.
	MinPerQueryLimit = 5
)

// Pair is one (query text, category) request for SelectDiverse.
type Pair struct {
	Text     string
	Category string
}

// Service ranks documents by lexical overlap with a query.
type Service struct {
	docs          DocumentReader
	searchTotal   *prometheus.CounterVec
	defaultTarget int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets a counter vec with labels "operation" and "outcome" ("hit"/"empty").
func WithMetrics(searchTotal *prometheus.CounterVec) Option {
	return func(s *Service) { s.searchTotal = searchTotal }
}

// WithPerCategoryTarget overrides DefaultPerCategoryTarget. Values <= 0 are ignored.
func WithPerCategoryTarget(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTarget = n
		}
	}
}

// New creates a search service.
func New(docs DocumentReader, opts ...Option) *Service {
	s := &Service{docs: docs, defaultTarget: DefaultPerCategoryTarget}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns documents ranked by descending score, ties in ingestion order.
// Only documents with a positive score are returned, at most q.Limit() of them.
// An empty query or an unknown category yields an empty result.
func (s *Service) Search(ctx context.Context, q *query.Query) ([]result.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	hits := s.match(q)
	s.observe("search", len(hits))
	return hits, nil
}

// SelectDiverse runs one category-filtered search per pair and groups hits
// into per-category buckets in first-seen order. Within a bucket documents are
// unique by ID (highest score kept), sorted by score and cut to perCategoryTarget.
func (s *Service) SelectDiverse(
	ctx context.Context, pairs []Pair, perCategoryTarget int,
) ([]result.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("select diverse: %w", err)
	}
	if perCategoryTarget <= 0 {
		perCategoryTarget = s.defaultTarget
	}
	perCategoryTarget = min(perCategoryTarget, query.MaxLimit)
	limit := max(perCategoryTarget, MinPerQueryLimit)

	queries := make([]query.Query, len(pairs))
	for i, p := range pairs {
		if strings.TrimSpace(p.Category) == "" {
			return nil, fmt.Errorf("%w: pair %d: category is required", domain.ErrInvalidQuery, i)
		}
		q, err := query.New(p.Text, p.Category, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d: %w", domain.ErrInvalidQuery, i, err)
		}
		queries[i] = q
	}

	var order []*bucket
	byKey := make(map[string]*bucket)
	for i := range queries {
		q := &queries[i]
		b, ok := byKey[q.Category()]
		if !ok {
			b = &bucket{idx: make(map[string]int)}
			byKey[q.Category()] = b
			order = append(order, b)
		}
		for _, h := range s.match(q) {
			b.add(h)
		}
	}

	out := make([]result.ScoredResult, 0, len(order)*perCategoryTarget)
	for _, b := range order {
		sortByScore(b.hits)
		if len(b.hits) > perCategoryTarget {
			b.hits = b.hits[:perCategoryTarget]
		}
		out = append(out, b.hits...)
	}
	s.observe("diverse", len(out))
	return out, nil
}

func (s *Service) match(q *query.Query) []result.ScoredResult {
	hits := make([]result.ScoredResult, 0)

	terms := Tokenize(q.Text())
	if len(terms) == 0 {
		return hits
	}
	if q.HasCategory() {
		if _, ok := domdoc.ParseCategory(q.Category()); !ok {
			return hits
		}
	}

	docs := s.docs.Documents()
	for i := range docs {
		d := &docs[i]
		if q.HasCategory() && string(d.Category()) != q.Category() {
			continue
		}
		if r, ok := score(terms, d); ok {
			hits = append(hits, r)
		}
	}

	sortByScore(hits)
	if len(hits) > q.Limit() {
		hits = hits[:q.Limit()]
	}
	return hits
}

func (s *Service) observe(op string, n int) {
	if s.searchTotal == nil {
		return
	}
	outcome := "hit"
	if n == 0 {
		outcome = "empty"
	}
	s.searchTotal.WithLabelValues(op, outcome).Inc()
}

type bucket struct {
	hits []result.ScoredResult
	idx  map[string]int
}

func (b *bucket) add(h result.ScoredResult) {
	if j, ok := b.idx[h.ID()]; ok {
		if h.Score() > b.hits[j].Score() {
			b.hits[j] = h
		}
		return
	}
	b.idx[h.ID()] = len(b.hits)
	b.hits = append(b.hits, h)
}

func sortByScore(hits []result.ScoredResult) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score() > hits[j].Score()
	})
}
