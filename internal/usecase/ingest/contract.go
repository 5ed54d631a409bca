package ingest

import (
	"context"

	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

// Source fetches normalized documents from one upstream endpoint.
type Source interface {
	Name() string
	Endpoint() string
	Fetch(ctx context.Context, limit int) ([]domdoc.Document, error)
}

// DocumentWriter publishes a complete document snapshot.
type DocumentWriter interface {
	Replace(docs []domdoc.Document) (batch.Swap, error)
}
