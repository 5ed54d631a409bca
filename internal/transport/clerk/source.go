// Package clerk reads legislative matters from the Chicago City Clerk API.
package clerk

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/transport/upstream"
)

const (
	// DefaultBaseURL is the City Clerk eLMS API root.
	DefaultBaseURL = "https://api.chicityclerkelms.chicago.gov"
	// DefaultRecentLimit is the size of the unfiltered recent-matters query.
	DefaultRecentLimit = 100
	// DefaultCategoryLimit is the size of each per-category query.
	DefaultCategoryLimit = 25

	sourcePrefix = "legislation"
)

// DefaultCategories are the matter categories fetched alongside recent matters.
var DefaultCategories = []string{
	"ZONING RECLASSIFICATIONS",
	"BUSINESS LICENSES",
	"PARKING",
	"TRANSPORTATION",
	"EXECUTIVE ORDERS & PROCLAMATIONS",
}

// Query selects matters. An empty Category means recent matters of any category.
type Query struct {
	Category string
	Limit    int
}

// Source runs one matter query.
type Source struct {
	client  *upstream.Client
	baseURL string
	query   Query
	name    string
	logger  *zap.Logger
}

// NewSource creates a source for q. A positive q.Limit overrides the limit
// passed to Fetch.
func NewSource(client *upstream.Client, baseURL string, q Query, logger *zap.Logger) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		query:   q,
		name:    sourceName(q.Category),
		logger:  logger,
	}
}

// NewSources builds the recent query plus one query per category limit.
// Zero limits disable a query.
func NewSources(client *upstream.Client, baseURL string, recentLimit int, categoryLimits map[string]int, logger *zap.Logger) []*Source {
	var out []*Source
	if recentLimit > 0 {
		out = append(out, NewSource(client, baseURL, Query{Limit: recentLimit}, logger))
	}
	for _, cat := range sortedCategories(categoryLimits) {
		if limit := categoryLimits[cat]; limit > 0 {
			out = append(out, NewSource(client, baseURL, Query{Category: cat, Limit: limit}, logger))
		}
	}
	return out
}

// DefaultCategoryLimits returns DefaultCategoryLimit for each default category.
func DefaultCategoryLimits() map[string]int {
	m := make(map[string]int, len(DefaultCategories))
	for _, c := range DefaultCategories {
		m[c] = DefaultCategoryLimit
	}
	return m
}

// sortedCategories keeps DefaultCategories order first, then the rest by name.
func sortedCategories(m map[string]int) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, c := range DefaultCategories {
		if _, ok := m[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var rest []string
	for c := range m {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func sourceName(category string) string {
	if category == "" {
		return sourcePrefix + "_recent"
	}
	var b strings.Builder
	b.WriteString(sourcePrefix)
	b.WriteByte('_')
	sep := false
	for _, r := range strings.ToLower(category) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > len(sourcePrefix)+1 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// Name returns the source name, e.g. "legislation_recent" or "legislation_parking".
func (s *Source) Name() string { return s.name }

// Endpoint returns the matter endpoint URL.
func (s *Source) Endpoint() string { return s.baseURL + "/matter" }

// Fetch returns matters newest first as documents.
func (s *Source) Fetch(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if s.query.Limit > 0 {
		limit = s.query.Limit
	}
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order", "introductionDate DESC")
	if s.query.Category != "" {
		q.Set("matterCategory", s.query.Category)
	}

	var page matterPage
	if err := s.client.GetJSON(ctx, s.Endpoint()+"?"+q.Encode(), &page); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.name, err)
	}

	docs := make([]domdoc.Document, 0, len(page.Data))
	for i := range page.Data {
		doc, err := page.Data[i].document(s.name)
		if err != nil {
			s.logger.Debug("Skipping matter", zap.String("source", s.name), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
