package civicdex

import "github.com/kailas-cloud/civicdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrInvalidQuery     = domain.ErrInvalidQuery
	ErrNoDocuments      = domain.ErrNoDocuments
	ErrUpstream         = domain.ErrUpstream
	ErrRateLimited      = domain.ErrRateLimited
	ErrIngestInProgress = domain.ErrIngestInProgress
)
