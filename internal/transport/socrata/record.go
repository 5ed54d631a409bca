package socrata

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
)

// record is one row of a dataset response. Socrata encodes most scalars as strings.
type record map[string]any

// str renders a scalar field as text. Missing, null and nested values render as "".
func (r record) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// or returns the field text or fallback when empty.
func (r record) or(key, fallback string) string {
	if s := r.str(key); s != "" {
		return s
	}
	return fallback
}

func (r record) num(key string) (float64, bool) {
	s := r.str(key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (r record) time(key string) (time.Time, bool) {
	return ParseTime(r.str(key))
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseTime accepts the timestamp shapes open-data portals emit. Values
// without a zone are read as UTC. Unparseable input reports false.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// metaBuilder accumulates typed metadata from a record, skipping empty fields.
type metaBuilder struct {
	r record
	m domdoc.Metadata
}

func newMeta(r record) *metaBuilder {
	return &metaBuilder{r: r, m: domdoc.Metadata{}}
}

func (b *metaBuilder) str(key string, fields ...string) *metaBuilder {
	src := key
	if len(fields) > 0 {
		src = fields[0]
	}
	if s := b.r.str(src); s != "" {
		b.m[key] = domdoc.StringValue(s)
	}
	return b
}

func (b *metaBuilder) num(key string) *metaBuilder {
	if f, ok := b.r.num(key); ok {
		b.m[key] = domdoc.NumberValue(f)
	}
	return b
}

func (b *metaBuilder) time(key string) *metaBuilder {
	if t, ok := b.r.time(key); ok {
		b.m[key] = domdoc.TimeValue(t)
	}
	return b
}

func (b *metaBuilder) build() domdoc.Metadata { return b.m }
