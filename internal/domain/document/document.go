package document

import (
	"fmt"
	"strings"
	"time"
)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 256

// Params carries the raw fields for New. Only ID is required.
type Params struct {
	ID            string
	Title         string
	Content       string
	DocumentType  string
	Category      string
	Authority     string
	URL           string
	Source        string
	Jurisdiction  string
	EffectiveDate *time.Time
	Metadata      Metadata
}

// Document is a normalized civic record (immutable value object).
type Document struct {
	id            string
	title         string
	content       string
	documentType  string
	category      Category
	authority     string
	url           string
	source        string
	jurisdiction  string
	effectiveDate *time.Time
	metadata      Metadata
}

// New validates and creates a Document.
// Unknown categories fall back to General; a nil or zero EffectiveDate means "unknown".
func New(p Params) (Document, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}

	var eff *time.Time
	if p.EffectiveDate != nil && !p.EffectiveDate.IsZero() {
		t := *p.EffectiveDate
		eff = &t
	}

	return Document{
		id:            id,
		title:         strings.TrimSpace(p.Title),
		content:       p.Content,
		documentType:  strings.TrimSpace(p.DocumentType),
		category:      NormalizeCategory(p.Category),
		authority:     strings.TrimSpace(p.Authority),
		url:           p.URL,
		source:        p.Source,
		jurisdiction:  p.Jurisdiction,
		effectiveDate: eff,
		metadata:      p.Metadata.clone(),
	}, nil
}

// MustNew is New that panics on error. Intended for fixtures.
func MustNew(p Params) Document {
	d, err := New(p)
	if err != nil {
		panic(err)
	}
	return d
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the short display title.
func (d *Document) Title() string { return d.title }

// Content returns the free-text body. Never nil, possibly empty.
func (d *Document) Content() string { return d.content }

// DocumentType returns the open type tag (e.g. "permit", "ordinance").
func (d *Document) DocumentType() string { return d.documentType }

// Category returns the topical bucket.
func (d *Document) Category() Category { return d.category }

// Authority returns the issuing body.
func (d *Document) Authority() string { return d.authority }

// URL returns the canonical source link.
func (d *Document) URL() string { return d.url }

// Source returns the ingestion source name.
func (d *Document) Source() string { return d.source }

// Jurisdiction returns the governing jurisdiction.
func (d *Document) Jurisdiction() string { return d.jurisdiction }

// EffectiveDate returns the effective date and whether it is known.
func (d *Document) EffectiveDate() (time.Time, bool) {
	if d.effectiveDate == nil {
		return time.Time{}, false
	}
	return *d.effectiveDate, true
}

// Metadata returns the typed source-specific fields.
func (d *Document) Metadata() Metadata { return d.metadata }
