package result

import "github.com/kailas-cloud/civicdex/internal/domain/document"

// Field names reported in MatchedFields.
const (
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldCategory  = "category"
	FieldAuthority = "authority"
)

// ScoredResult is a single ranked hit.
type ScoredResult struct {
	doc           document.Document
	score         float64
	matchedTerms  []string
	matchedFields []string
}

// New creates a scored result.
func New(doc document.Document, score float64, matchedTerms, matchedFields []string) ScoredResult {
	return ScoredResult{
		doc:           doc,
		score:         score,
		matchedTerms:  matchedTerms,
		matchedFields: matchedFields,
	}
}

// Document returns the matched document.
func (r *ScoredResult) Document() document.Document { return r.doc }

// ID is shorthand for Document().ID().
func (r *ScoredResult) ID() string { return r.doc.ID() }

// Score returns the relevance score in [0,1].
func (r *ScoredResult) Score() float64 { return r.score }

// MatchedTerms returns the query terms that earned credit, in query order.
func (r *ScoredResult) MatchedTerms() []string { return r.matchedTerms }

// MatchedFields returns the document fields that contributed credit.
func (r *ScoredResult) MatchedFields() []string { return r.matchedFields }
