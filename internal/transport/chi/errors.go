package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civicdex/internal/domain"
	logpkg "github.com/kailas-cloud/civicdex/internal/logger"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeDocumentNotFound = "document_not_found"
	CodeNoDocuments      = "no_documents"
	CodeIngestInProgress = "ingest_in_progress"
	CodeRateLimited      = "rate_limited"
	CodeUpstreamError    = "upstream_error"
	CodeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed, true),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound, false),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, false),
		sentinelHandler(domain.ErrIngestInProgress, http.StatusConflict, CodeIngestInProgress, false),
		sentinelHandler(domain.ErrNoDocuments, http.StatusBadGateway, CodeNoDocuments, false),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, false),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError, false),
	}
}

// sentinelHandler matches a single sentinel. With detail the wrapped message
// is returned to the client, otherwise only the sentinel text.
func sentinelHandler(sentinel error, status int, code string, detail bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detail {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
