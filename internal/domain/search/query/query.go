package query

import (
	"fmt"
	"strings"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query text length in bytes.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Query is a validated lexical search request.
type Query struct {
	text     string
	category string
	limit    int
}

// New validates and normalizes search parameters.
// Empty text is allowed and matches nothing. Limit <= 0 falls back to DefaultLimit,
// values above MaxLimit are clamped. Category is compared case-insensitively.
func New(text, category string, limit int) (Query, error) {
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{
		text:     text,
		category: strings.ToLower(strings.TrimSpace(category)),
		limit:    limit,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Category returns the lower-cased category filter, "" when unset.
func (q *Query) Category() string { return q.category }

// HasCategory reports whether a category filter is set.
func (q *Query) HasCategory() bool { return q.category != "" }

// Limit returns the maximum number of results.
func (q *Query) Limit() int { return q.limit }
