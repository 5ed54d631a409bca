// Package chi is the JSON HTTP API over the civic document services.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civicdex/internal/domain"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/civicdex/internal/logger"
	"github.com/kailas-cloud/civicdex/internal/metrics"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/civicdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/civicdex/internal/usecase/search"
	"github.com/kailas-cloud/civicdex/internal/version"
)

const (
	maxBodyBytes       = 1 << 20
	defaultListLimit   = 100
	defaultHistorySize = 20
	maxDiversePairs    = 50
)

// DocumentStore is the read side of the document snapshot.
type DocumentStore interface {
	Get(id string) (domdoc.Document, error)
	List(f docrepo.ListFilter) []domdoc.Document
	Stats() docrepo.Stats
}

// ConversationLog is the read/clear side of the chat log.
type ConversationLog interface {
	Recent(limit int) []domconv.Message
	Clear() int
	Len() int
}

// Server holds the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	chat          *chatuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	docs          DocumentStore
	history       ConversationLog
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	chat *chatuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	docs DocumentStore,
	history ConversationLog,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		chat:          chat,
		ingest:        ingest,
		health:        health,
		docs:          docs,
		history:       history,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())
	r.Use(chiMiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r gochi.Router) {
		r.Get("/data-sources", s.ListDataSources)
		r.Post("/ingest", s.Ingest)

		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/stats", s.DocumentStats)
		r.Get("/documents/{id}", s.GetDocument)

		r.Post("/search", s.Search)
		r.Post("/search/diverse", s.SearchDiverse)
		r.Get("/search/suggestions", s.Suggestions)

		r.Post("/chat/ask", s.Ask)
		r.Get("/chat/history", s.ChatHistory)
		r.Post("/chat/clear", s.ClearChat)

		r.Get("/analytics", s.Analytics)
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Documents: report.Documents,
		Version:   version.Version,
	})
}

// ListDataSources handles GET /api/v1/data-sources.
func (s *Server) ListDataSources(w http.ResponseWriter, _ *http.Request) {
	resp := DataSourcesResponse{Sources: sourcesToDTO(s.ingest.Sources())}
	if rep, ok := s.ingest.LastReport(); ok {
		dto := reportToDTO(&rep)
		resp.LastIngestion = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ingest handles POST /api/v1/ingest. The run is detached from the client
// connection so a disconnect does not abort a half-finished fetch.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	if req.LimitPerSource < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit_per_source must be >= 0")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	report, err := s.ingest.Ingest(ctx, req.LimitPerSource)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.Annotate(r.Context(),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed_sources", report.Failed()),
	)
	writeJSON(w, http.StatusOK, reportToDTO(&report))
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultListLimit)
	if !ok {
		return
	}
	docs := s.docs.List(docrepo.ListFilter{
		Category:     r.URL.Query().Get("category"),
		DocumentType: r.URL.Query().Get("document_type"),
		Limit:        limit,
	})
	items := make([]Document, len(docs))
	for i := range docs {
		items[i] = documentToDTO(&docs[i])
	}
	writeJSON(w, http.StatusOK, DocumentList{Items: items, Total: len(items)})
}

// DocumentStats handles GET /api/v1/documents/stats.
func (s *Server) DocumentStats(w http.ResponseWriter, _ *http.Request) {
	st := s.docs.Stats()
	writeJSON(w, http.StatusOK, statsToDTO(&st))
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := query.New(req.Query, req.Category, req.Limit)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err))
		return
	}
	hits, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.Annotate(r.Context(), zap.String("category", req.Category), zap.Int("results", len(hits)))
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Results: resultsToDTO(hits),
		Total:   len(hits),
	})
}

// SearchDiverse handles POST /api/v1/search/diverse.
func (s *Server) SearchDiverse(w http.ResponseWriter, r *http.Request) {
	var req DiverseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Pairs) > maxDiversePairs {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("at most %d pairs are allowed", maxDiversePairs))
		return
	}
	pairs := make([]searchuc.Pair, len(req.Pairs))
	for i, p := range req.Pairs {
		pairs[i] = searchuc.Pair{Text: p.Query, Category: p.Category}
	}
	hits, err := s.search.SelectDiverse(r.Context(), pairs, req.PerCategoryTarget)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.Annotate(r.Context(), zap.Int("pairs", len(pairs)), zap.Int("results", len(hits)))
	writeJSON(w, http.StatusOK, SearchResponse{Results: resultsToDTO(hits), Total: len(hits)})
}

// Suggestions handles GET /api/v1/search/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: searchuc.Suggestions(limit)})
}

// Ask handles POST /api/v1/chat/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	useContext := true
	if req.UseContext != nil {
		useContext = *req.UseContext
	}
	resp, err := s.chat.Answer(r.Context(), req.Message, useContext, req.MaxContextDocs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.Annotate(r.Context(), zap.String("intent", string(resp.Intent)), zap.Int("sources", len(resp.Sources)))
	writeJSON(w, http.StatusOK, chatToDTO(&resp))
}

// ChatHistory handles GET /api/v1/chat/history.
func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultHistorySize)
	if !ok {
		return
	}
	msgs := s.history.Recent(limit)
	writeJSON(w, http.StatusOK, HistoryResponse{Messages: messagesToDTO(msgs), Total: s.history.Len()})
}

// ClearChat handles POST /api/v1/chat/clear.
func (s *Server) ClearChat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ClearResponse{Cleared: s.history.Clear()})
}

// Analytics handles GET /api/v1/analytics.
func (s *Server) Analytics(w http.ResponseWriter, _ *http.Request) {
	st := s.docs.Stats()
	resp := AnalyticsResponse{
		Documents:    statsToDTO(&st),
		ChatMessages: s.history.Len(),
	}
	if rep, ok := s.ingest.LastReport(); ok {
		dto := reportToDTO(&rep)
		resp.LastIngestion = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRateLimited,
		domain.ErrUpstream,
		domain.ErrNoDocuments,
		context.DeadlineExceeded,
		context.Canceled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "fetch failed"
}
