package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civicdex/internal/domain"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
)

// DefaultMaxContextDocs is used when the caller passes a non-positive value.
const DefaultMaxContextDocs = 3

// Response is a templated answer with the documents backing it.
type Response struct {
	Answer                 string
	Sources                []result.ScoredResult
	ConfidenceScore        float64
	Intent                 Intent
	ContextUsed            int
	TotalDocumentsSearched int
}

// Service answers questions by formatting the matcher's top documents.
type Service struct {
	search      Searcher
	log         ConversationLog
	docs        DocumentCounter
	answerTotal *prometheus.CounterVec
	logger      *zap.Logger
	maxDocs     int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets a counter vec with label "outcome" ("context"/"fallback").
func WithMetrics(answerTotal *prometheus.CounterVec) Option {
	return func(s *Service) { s.answerTotal = answerTotal }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxContextDocs overrides DefaultMaxContextDocs. Values <= 0 are ignored.
func WithMaxContextDocs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDocs = n
		}
	}
}

// New creates a chat service. docs may be nil.
func New(search Searcher, log ConversationLog, docs DocumentCounter, opts ...Option) *Service {
	s := &Service{search: search, log: log, docs: docs, logger: zap.NewNop(), maxDocs: DefaultMaxContextDocs}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Answer records the question, answers it from up to maxContextDocs documents
// and records the answer. Confidence is the top score scaled by how many of
// the requested context documents were found.
func (s *Service) Answer(
	ctx context.Context, question string, useContext bool, maxContextDocs int,
) (Response, error) {
	if strings.TrimSpace(question) == "" {
		return Response{}, fmt.Errorf("%w: message is required", domain.ErrInvalidQuery)
	}
	if len(question) > query.MaxQueryLength {
		return Response{}, fmt.Errorf("%w: message too long (max %d bytes)", domain.ErrInvalidQuery, query.MaxQueryLength)
	}
	if maxContextDocs <= 0 {
		maxContextDocs = s.maxDocs
	}
	maxContextDocs = min(maxContextDocs, query.MaxLimit)

	if _, err := s.log.Append(domconv.RoleUser, question, 0); err != nil {
		return Response{}, fmt.Errorf("append user turn: %w", err)
	}

	var hits []result.ScoredResult
	if useContext {
		q, err := query.New(question, "", maxContextDocs)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		hits, err = s.search.Search(ctx, &q)
		if err != nil {
			return Response{}, fmt.Errorf("search context: %w", err)
		}
	}

	resp := Response{
		Sources:     []result.ScoredResult{},
		Intent:      ClassifyIntent(question),
		ContextUsed: len(hits),
	}
	if s.docs != nil {
		resp.TotalDocumentsSearched = s.docs.Count()
	}

	if len(hits) == 0 {
		resp.Answer = fallbackAnswer(question)
		s.inc("fallback")
	} else {
		top := hits[0].Document()
		resp.Answer = composeAnswer(resp.Intent, &top)
		resp.Sources = hits
		coverage := min(1.0, float64(len(hits))/float64(maxContextDocs))
		resp.ConfidenceScore = hits[0].Score() * coverage
		s.inc("context")
	}

	if _, err := s.log.Append(domconv.RoleAssistant, resp.Answer, len(resp.Sources)); err != nil {
		return Response{}, fmt.Errorf("append assistant turn: %w", err)
	}

	s.logger.Debug("Chat answered",
		zap.String("intent", string(resp.Intent)),
		zap.Int("sources", len(resp.Sources)),
		zap.Float64("confidence", resp.ConfidenceScore),
	)
	return resp, nil
}

func (s *Service) inc(outcome string) {
	if s.answerTotal != nil {
		s.answerTotal.WithLabelValues(outcome).Inc()
	}
}
