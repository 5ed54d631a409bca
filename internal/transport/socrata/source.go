// Package socrata reads datasets from the Chicago open-data portal and turns
// their rows into documents.
package socrata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/transport/upstream"
)

// DefaultBaseURL is the Chicago data portal root.
const DefaultBaseURL = "https://data.cityofchicago.org"

// DefaultLimit applies when Fetch is called without a positive limit.
const DefaultLimit = 50

// Source fetches one dataset.
type Source struct {
	client  *upstream.Client
	baseURL string
	ds      Dataset
}

// NewSource creates a dataset source. An empty baseURL uses DefaultBaseURL.
func NewSource(client *upstream.Client, baseURL string, ds Dataset) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		ds:      ds,
	}
}

// NewSources creates sources for the named built-in datasets. Unknown names
// are an error; an empty list selects every dataset.
func NewSources(client *upstream.Client, baseURL string, names []string) ([]*Source, error) {
	if len(names) == 0 {
		all := Datasets()
		out := make([]*Source, 0, len(all))
		for _, ds := range all {
			out = append(out, NewSource(client, baseURL, ds))
		}
		return out, nil
	}
	out := make([]*Source, 0, len(names))
	for _, name := range names {
		ds, ok := LookupDataset(name)
		if !ok {
			return nil, fmt.Errorf("unknown open data dataset %q", name)
		}
		out = append(out, NewSource(client, baseURL, ds))
	}
	return out, nil
}

// Name returns the dataset name.
func (s *Source) Name() string { return s.ds.Name }

// Endpoint returns the dataset resource URL.
func (s *Source) Endpoint() string {
	return s.baseURL + "/resource/" + s.ds.ResourceID + ".json"
}

// Fetch returns up to limit of the most recent rows as documents.
func (s *Source) Fetch(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(limit))
	q.Set("$order", s.ds.OrderField+" DESC")

	var rows []record
	if err := s.client.GetJSON(ctx, s.Endpoint()+"?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.ds.Name, err)
	}

	docs := make([]domdoc.Document, 0, len(rows))
	for _, r := range rows {
		if doc, ok := s.ds.normalize(r); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
