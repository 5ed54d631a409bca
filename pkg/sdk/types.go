package civicdex

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
)

// Document is one normalized civic record.
// Metadata values are string, float64 or time.Time.
type Document struct {
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
	Metadata      map[string]any
}

// Query is a lexical search request. Limit 0 means the default of 10.
type Query struct {
	Text     string
	Category string
	Limit    int
}

// Pair is one (text, category) request for SelectDiverse.
type Pair struct {
	Text     string
	Category string
}

// SearchResult is a document with its relevance score.
type SearchResult struct {
	Document      Document
	Score         float64
	MatchedTerms  []string
	MatchedFields []string
}

// AskOptions tunes Ask. The zero value answers from context with the
// client's default document count.
type AskOptions struct {
	WithoutContext bool
	MaxContextDocs int
}

// Answer is a templated chat reply.
type Answer struct {
	Text                   string
	Sources                []SearchResult
	Confidence             float64
	Intent                 string
	ContextUsed            int
	TotalDocumentsSearched int
}

// Message is one entry of the conversation log.
type Message struct {
	ID          string
	Role        string
	Text        string
	SourceCount int
	CreatedAt   time.Time
}

// Stats aggregates the loaded documents.
type Stats struct {
	Total       int
	ByCategory  map[string]int
	BySource    map[string]int
	ByType      map[string]int
	Authorities []string
	Earliest    *time.Time
	Latest      *time.Time
	LoadedAt    time.Time
}

// SourceReport is the outcome of one source fetch.
type SourceReport struct {
	Name     string
	OK       bool
	Count    int
	Duration time.Duration
	Err      error
}

// IngestReport summarizes a Load or Refresh.
type IngestReport struct {
	Applied    bool
	Fetched    int
	Loaded     int
	Duplicates int
	Sources    []SourceReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// SourceInfo names a configured upstream source.
type SourceInfo struct {
	Name     string
	Endpoint string
}

func fromDocument(d domdoc.Document) Document {
	out := Document{
		ID:           d.ID(),
		Title:        d.Title(),
		Content:      d.Content(),
		DocumentType: d.DocumentType(),
		Category:     string(d.Category()),
		Authority:    d.Authority(),
		URL:          d.URL(),
		Source:       d.Source(),
		Jurisdiction: d.Jurisdiction(),
	}
	if t, ok := d.EffectiveDate(); ok {
		out.EffectiveDate = &t
	}
	if md := d.Metadata(); len(md) > 0 {
		out.Metadata = make(map[string]any, len(md))
		for k, v := range md {
			switch v.Kind() {
			case domdoc.KindNumber:
				n, _ := v.AsNumber()
				out.Metadata[k] = n
			case domdoc.KindTime:
				t, _ := v.AsTime()
				out.Metadata[k] = t
			default:
				out.Metadata[k] = v.Text()
			}
		}
	}
	return out
}

func toDocument(d Document) (domdoc.Document, error) {
	md := make(domdoc.Metadata, len(d.Metadata))
	for k, v := range d.Metadata {
		switch x := v.(type) {
		case string:
			md[k] = domdoc.StringValue(x)
		case float64:
			md[k] = domdoc.NumberValue(x)
		case int:
			md[k] = domdoc.NumberValue(float64(x))
		case time.Time:
			md[k] = domdoc.TimeValue(x)
		case bool:
			if x {
				md[k] = domdoc.StringValue("yes")
			} else {
				md[k] = domdoc.StringValue("no")
			}
		case nil:
		default:
			md[k] = domdoc.StringValue(fmt.Sprint(x))
		}
	}
	doc, err := domdoc.New(domdoc.Params{
		ID:            d.ID,
		Title:         d.Title,
		Content:       d.Content,
		DocumentType:  d.DocumentType,
		Category:      d.Category,
		Authority:     d.Authority,
		URL:           d.URL,
		Source:        d.Source,
		Jurisdiction:  d.Jurisdiction,
		EffectiveDate: d.EffectiveDate,
		Metadata:      md,
	})
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", d.ID, err)
	}
	return doc, nil
}

func fromResults(rs []result.ScoredResult) []SearchResult {
	out := make([]SearchResult, len(rs))
	for i := range rs {
		out[i] = SearchResult{
			Document:      fromDocument(rs[i].Document()),
			Score:         rs[i].Score(),
			MatchedTerms:  rs[i].MatchedTerms(),
			MatchedFields: rs[i].MatchedFields(),
		}
	}
	return out
}

func fromResponse(r chatuc.Response) Answer {
	return Answer{
		Text:                   r.Answer,
		Sources:                fromResults(r.Sources),
		Confidence:             r.ConfidenceScore,
		Intent:                 string(r.Intent),
		ContextUsed:            r.ContextUsed,
		TotalDocumentsSearched: r.TotalDocumentsSearched,
	}
}

func fromMessages(ms []domconv.Message) []Message {
	out := make([]Message, len(ms))
	for i := range ms {
		out[i] = Message{
			ID:          ms[i].ID(),
			Role:        string(ms[i].Role()),
			Text:        ms[i].Text(),
			SourceCount: ms[i].SourceCount(),
			CreatedAt:   ms[i].CreatedAt(),
		}
	}
	return out
}

func fromStats(st docrepo.Stats) Stats {
	return Stats{
		Total:       st.Total,
		ByCategory:  st.ByCategory,
		BySource:    st.BySource,
		ByType:      st.ByType,
		Authorities: st.Authorities,
		Earliest:    st.Earliest,
		Latest:      st.Latest,
		LoadedAt:    st.LoadedAt,
	}
}

func fromReport(r batch.Report) IngestReport {
	out := IngestReport{
		Applied:    r.Applied,
		Fetched:    r.Fetched,
		Loaded:     r.Loaded,
		Duplicates: r.Duplicates,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Sources:    make([]SourceReport, len(r.Sources)),
	}
	for i, s := range r.Sources {
		out.Sources[i] = SourceReport{
			Name:     s.Source(),
			OK:       s.Status() == batch.StatusOK,
			Count:    s.Count(),
			Duration: s.Duration(),
			Err:      s.Err(),
		}
	}
	return out
}
