package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidQuery signals a malformed search, diverse or chat request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoDocuments signals that an ingestion run produced nothing to publish.
	ErrNoDocuments = errors.New("no documents available")
	// ErrUpstream signals a failure of an external open-data API.
	ErrUpstream = errors.New("upstream source error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrIngestInProgress signals that another ingestion run holds the lock.
	ErrIngestInProgress = errors.New("ingestion already in progress")
)

// UpstreamError wraps ErrUpstream with the HTTP status returned by a source.
type UpstreamError struct {
	Source     string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrUpstream.Error(), e.Source, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// NewUpstreamError creates an upstream error for the given source and status.
func NewUpstreamError(source string, statusCode int) error {
	return &UpstreamError{Source: source, StatusCode: statusCode}
}
