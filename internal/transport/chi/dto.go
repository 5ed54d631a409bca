package chi

import (
	"time"

	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	"github.com/kailas-cloud/civicdex/internal/usecase/chat"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Document is the wire form of a civic document.
type Document struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	DocumentType  string          `json:"document_type"`
	Category      string          `json:"category"`
	Authority     string          `json:"authority"`
	URL           string          `json:"url"`
	Source        string          `json:"source,omitempty"`
	Jurisdiction  string          `json:"jurisdiction,omitempty"`
	EffectiveDate *time.Time      `json:"effective_date"`
	Metadata      domdoc.Metadata `json:"metadata"`
}

// DocumentList wraps GET /documents.
type DocumentList struct {
	Items []Document `json:"items"`
	Total int        `json:"total"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Document       Document `json:"document"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchedTerms   []string `json:"matched_terms"`
	MatchedFields  []string `json:"matched_fields"`
}

// SearchResponse wraps ranked hits.
type SearchResponse struct {
	Query   string         `json:"query,omitempty"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// DiversePair is one (query, category) request.
type DiversePair struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

// DiverseRequest is the body of POST /search/diverse.
type DiverseRequest struct {
	Pairs             []DiversePair `json:"pairs"`
	PerCategoryTarget int           `json:"per_category_target,omitempty"`
}

// SuggestionsResponse wraps GET /search/suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ChatRequest is the body of POST /chat/ask. UseContext defaults to true.
type ChatRequest struct {
	Message        string `json:"message"`
	UseContext     *bool  `json:"use_context,omitempty"`
	MaxContextDocs int    `json:"max_context_docs,omitempty"`
}

// ChatResponse is a templated answer.
type ChatResponse struct {
	Answer                 string         `json:"answer"`
	Sources                []SearchResult `json:"sources"`
	ConfidenceScore        float64        `json:"confidence_score"`
	Intent                 string         `json:"intent"`
	ContextUsed            int            `json:"context_used"`
	TotalDocumentsSearched int            `json:"total_documents_searched"`
}

// Message is one conversation turn.
type Message struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryResponse wraps GET /chat/history.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// ClearResponse wraps POST /chat/clear.
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// IngestRequest is the optional body of POST /ingest.
type IngestRequest struct {
	LimitPerSource int `json:"limit_per_source,omitempty"`
}

// SourceResult is one source's outcome in an ingestion run.
type SourceResult struct {
	Source     string `json:"source"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Applied       bool           `json:"applied"`
	Fetched       int            `json:"fetched"`
	Loaded        int            `json:"loaded"`
	Duplicates    int            `json:"duplicates"`
	FailedSources int            `json:"failed_sources"`
	Sources       []SourceResult `json:"sources"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

// DataSource describes a configured source.
type DataSource struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// DataSourcesResponse wraps GET /data-sources.
type DataSourcesResponse struct {
	Sources       []DataSource  `json:"sources"`
	LastIngestion *IngestReport `json:"last_ingestion"`
}

// DateRange bounds the known effective dates.
type DateRange struct {
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

// StatsResponse wraps GET /documents/stats.
type StatsResponse struct {
	TotalDocuments int            `json:"total_documents"`
	Categories     map[string]int `json:"categories"`
	Sources        map[string]int `json:"sources"`
	DocumentTypes  map[string]int `json:"document_types"`
	Authorities    []string       `json:"authorities"`
	DateRange      DateRange      `json:"date_range"`
	LoadedAt       *time.Time     `json:"loaded_at"`
}

// AnalyticsResponse wraps GET /analytics.
type AnalyticsResponse struct {
	Documents     StatsResponse `json:"documents"`
	ChatMessages  int           `json:"chat_messages"`
	LastIngestion *IngestReport `json:"last_ingestion"`
}

// HealthResponse wraps GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
	Version   string            `json:"version"`
}

func documentToDTO(d *domdoc.Document) Document {
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
		Metadata:     d.Metadata(),
	}
	if out.Metadata == nil {
		out.Metadata = domdoc.Metadata{}
	}
	if t, ok := d.EffectiveDate(); ok {
		out.EffectiveDate = &t
	}
	return out
}

func resultsToDTO(hits []result.ScoredResult) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i := range hits {
		doc := hits[i].Document()
		out[i] = SearchResult{
			Document:       documentToDTO(&doc),
			RelevanceScore: hits[i].Score(),
			MatchedTerms:   nonNil(hits[i].MatchedTerms()),
			MatchedFields:  nonNil(hits[i].MatchedFields()),
		}
	}
	return out
}

func chatToDTO(r *chat.Response) ChatResponse {
	return ChatResponse{
		Answer:                 r.Answer,
		Sources:                resultsToDTO(r.Sources),
		ConfidenceScore:        r.ConfidenceScore,
		Intent:                 string(r.Intent),
		ContextUsed:            r.ContextUsed,
		TotalDocumentsSearched: r.TotalDocumentsSearched,
	}
}

func messagesToDTO(msgs []domconv.Message) []Message {
	out := make([]Message, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		out[i] = Message{
			ID:          m.ID(),
			Role:        string(m.Role()),
			Text:        m.Text(),
			SourceCount: m.SourceCount(),
			CreatedAt:   m.CreatedAt(),
		}
	}
	return out
}

func reportToDTO(r *batch.Report) IngestReport {
	out := IngestReport{
		Applied:       r.Applied,
		Fetched:       r.Fetched,
		Loaded:        r.Loaded,
		Duplicates:    r.Duplicates,
		FailedSources: r.Failed(),
		Sources:       make([]SourceResult, len(r.Sources)),
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
	for i, s := range r.Sources {
		sr := SourceResult{
			Source:     s.Source(),
			Status:     string(s.Status()),
			Count:      s.Count(),
			DurationMS: s.Duration().Milliseconds(),
		}
		if s.Err() != nil {
			sr.Error = safeDomainMessage(s.Err())
		}
		out.Sources[i] = sr
	}
	return out
}

func sourcesToDTO(in []ingestuc.SourceInfo) []DataSource {
	out := make([]DataSource, len(in))
	for i, s := range in {
		out[i] = DataSource{Name: s.Name, Endpoint: s.Endpoint}
	}
	return out
}

func statsToDTO(st *docrepo.Stats) StatsResponse {
	out := StatsResponse{
		TotalDocuments: st.Total,
		Categories:     st.ByCategory,
		Sources:        st.BySource,
		DocumentTypes:  st.ByType,
		Authorities:    nonNil(st.Authorities),
		DateRange:      DateRange{Earliest: st.Earliest, Latest: st.Latest},
	}
	if !st.LoadedAt.IsZero() {
		t := st.LoadedAt
		out.LoadedAt = &t
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
