package search

import (
	"strings"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
)

// Per-token credit weights. A token earns TitleWeight or ContentWeight (title
// wins), plus FieldBonus when it also occurs in the category or authority.
// Credit is capped at MaxTokenCredit.
const (
	TitleWeight    = 1.0
	ContentWeight  = 0.5
	FieldBonus     = 0.25
	MaxTokenCredit = 1.0
)

// score rates doc against distinct query terms. ok is false when nothing matched.
func score(terms []string, doc *domdoc.Document) (result.ScoredResult, bool) {
	title := tokenSet(doc.Title())
	var content map[string]struct{}
	category := string(doc.Category())
	authority := strings.ToLower(doc.Authority())

	var (
		total      float64
		matched    []string
		inTitle    bool
		inContent  bool
		inCategory bool
		inAuth     bool
	)
	for _, t := range terms {
		credit := 0.0
		if _, ok := title[t]; ok {
			credit = TitleWeight
			inTitle = true
		} else {
			if content == nil {
				content = tokenSet(doc.Content())
			}
			if _, ok := content[t]; ok {
				credit = ContentWeight
				inContent = true
			}
		}

		catHit := strings.Contains(category, t)
		authHit := authority != "" && strings.Contains(authority, t)
		if catHit || authHit {
			credit += FieldBonus
			inCategory = inCategory || catHit
			inAuth = inAuth || authHit
		}

		if credit == 0 {
			continue
		}
		if credit > MaxTokenCredit {
			credit = MaxTokenCredit
		}
		total += credit
		matched = append(matched, t)
	}
	if total == 0 {
		return result.ScoredResult{}, false
	}

	fields := make([]string, 0, 4)
	if inTitle {
		fields = append(fields, result.FieldTitle)
	}
	if inContent {
		fields = append(fields, result.FieldContent)
	}
	if inCategory {
		fields = append(fields, result.FieldCategory)
	}
	if inAuth {
		fields = append(fields, result.FieldAuthority)
	}

	return result.New(*doc, total/float64(len(terms)), matched, fields), true
}
