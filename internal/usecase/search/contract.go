package search

import domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"

// DocumentReader exposes the current document snapshot in ingestion order.
type DocumentReader interface {
	Documents() []domdoc.Document
}
