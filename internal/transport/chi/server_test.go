package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	convrepo "github.com/kailas-cloud/civicdex/internal/repository/conversation"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/civicdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/civicdex/internal/usecase/search"
)

// --- Mocks ---

type stubSource struct {
	name string
	docs []domdoc.Document
	err  error
}

func (s *stubSource) Name() string     { return s.name }
func (s *stubSource) Endpoint() string { return "https://example.test/" + s.name }

func (s *stubSource) Fetch(_ context.Context, _ int) ([]domdoc.Document, error) {
	return s.docs, s.err
}

// --- Helpers ---

func testDocs() []domdoc.Document {
	return []domdoc.Document{
		domdoc.MustNew(domdoc.Params{
			ID: "p1", Title: "Building Permit - New Construction", Content: "Erect a garage.",
			DocumentType: "permit", Category: "construction", Authority: "Chicago Department of Buildings",
			Source: "building_permits",
		}),
		domdoc.MustNew(domdoc.Params{
			ID: "l1", Title: "Business License - Retail Food", Content: "License for a corner store.",
			DocumentType: "license", Category: "business", Authority: "Chicago BACP",
			Source: "business_licenses",
		}),
	}
}

type fixture struct {
	srv    *httptest.Server
	store  *docrepo.Store
	log    *convrepo.Log
	ingest *ingestuc.Service
}

func newFixture(t *testing.T, sources ...ingestuc.Source) *fixture {
	t.Helper()
	store := docrepo.New()
	if _, err := store.Replace(testDocs()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	log := convrepo.New(convrepo.WithClock(func() time.Time { return now }))

	searchSvc := searchuc.New(store)
	chatSvc := chatuc.New(searchSvc, log, store)
	ingestSvc := ingestuc.New(sources, store)
	healthSvc := healthuc.New(store, nil)

	server := NewServer(searchSvc, chatSvc, ingestSvc, healthSvc, store, log, zap.NewNop())
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store, log: log, ingest: ingestSvc}
}

func (f *fixture) do(t *testing.T, method, path, body string, out any) *http.Response {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	var body HealthResponse
	resp := f.do(t, http.MethodGet, "/health", "", &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Status != "ok" || body.Documents != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestSearch_RanksAndFilters(t *testing.T) {
	f := newFixture(t)
	var body SearchResponse
	resp := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"building permit"}`, &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Total != 1 || body.Results[0].Document.ID != "p1" {
		t.Fatalf("unexpected results: %+v", body)
	}
	if body.Results[0].RelevanceScore != 1.0 {
		t.Errorf("expected score 1.0, got %v", body.Results[0].RelevanceScore)
	}
	if body.Results[0].Document.EffectiveDate != nil {
		t.Error("unknown effective date should be null")
	}

	var filtered SearchResponse
	f.do(t, http.MethodPost, "/api/v1/search", `{"query":"building permit","category":"business"}`, &filtered)
	if filtered.Total != 0 {
		t.Errorf("category filter should exclude p1, got %+v", filtered)
	}
}

func TestSearch_EmptyQueryReturnsEmptyList(t *testing.T) {
	f := newFixture(t)
	var raw map[string]json.RawMessage
	resp := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"   "}`, &raw)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(raw["results"]) != "[]" {
		t.Errorf("expected [] results, got %s", raw["results"])
	}
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t)

	var bad ErrorResponse
	resp := f.do(t, http.MethodPost, "/api/v1/search", `{not json`, &bad)
	if resp.StatusCode != http.StatusBadRequest || bad.Code != CodeBadRequest {
		t.Errorf("malformed body: status=%d code=%q", resp.StatusCode, bad.Code)
	}

	long := strings.Repeat("a", 5000)
	var tooLong ErrorResponse
	resp = f.do(t, http.MethodPost, "/api/v1/search", `{"query":"`+long+`"}`, &tooLong)
	if resp.StatusCode != http.StatusBadRequest || tooLong.Code != CodeValidationFailed {
		t.Errorf("long query: status=%d code=%q", resp.StatusCode, tooLong.Code)
	}
}

func TestSearchDiverse(t *testing.T) {
	f := newFixture(t)

	var body SearchResponse
	resp := f.do(t, http.MethodPost, "/api/v1/search/diverse",
		`{"pairs":[{"query":"license","category":"business"},{"query":"permit","category":"construction"}],
		  "per_category_target":1}`, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Total != 2 || body.Results[0].Document.ID != "l1" || body.Results[1].Document.ID != "p1" {
		t.Errorf("unexpected buckets: %+v", body)
	}

	var bad ErrorResponse
	resp = f.do(t, http.MethodPost, "/api/v1/search/diverse", `{"pairs":[{"query":"permit","category":" "}]}`, &bad)
	if resp.StatusCode != http.StatusBadRequest || bad.Code != CodeValidationFailed {
		t.Errorf("blank category: status=%d code=%q", resp.StatusCode, bad.Code)
	}
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t)
	var body SuggestionsResponse
	f.do(t, http.MethodGet, "/api/v1/search/suggestions?limit=3", "", &body)
	if len(body.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(body.Suggestions))
	}
}

func TestDocuments(t *testing.T) {
	f := newFixture(t)

	var list DocumentList
	f.do(t, http.MethodGet, "/api/v1/documents?category=business", "", &list)
	if list.Total != 1 || list.Items[0].ID != "l1" {
		t.Errorf("unexpected list: %+v", list)
	}

	var doc Document
	resp := f.do(t, http.MethodGet, "/api/v1/documents/p1", "", &doc)
	if resp.StatusCode != http.StatusOK || doc.Title != "Building Permit - New Construction" {
		t.Errorf("get p1: status=%d doc=%+v", resp.StatusCode, doc)
	}

	var missing ErrorResponse
	resp = f.do(t, http.MethodGet, "/api/v1/documents/nope", "", &missing)
	if resp.StatusCode != http.StatusNotFound || missing.Code != CodeDocumentNotFound {
		t.Errorf("missing: status=%d code=%q", resp.StatusCode, missing.Code)
	}

	var badLimit ErrorResponse
	resp = f.do(t, http.MethodGet, "/api/v1/documents?limit=abc", "", &badLimit)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: status=%d", resp.StatusCode)
	}

	var stats StatsResponse
	f.do(t, http.MethodGet, "/api/v1/documents/stats", "", &stats)
	if stats.TotalDocuments != 2 || stats.Categories["construction"] != 1 || stats.Sources["business_licenses"] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestChat_AskHistoryClear(t *testing.T) {
	f := newFixture(t)

	var ans ChatResponse
	resp := f.do(t, http.MethodPost, "/api/v1/chat/ask", `{"message":"How do I get a building permit?"}`, &ans)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(ans.Sources) == 0 || ans.Sources[0].Document.ID != "p1" {
		t.Errorf("expected p1 as top source, got %+v", ans.Sources)
	}
	if ans.TotalDocumentsSearched != 2 {
		t.Errorf("expected 2 documents searched, got %d", ans.TotalDocumentsSearched)
	}

	var noCtx ChatResponse
	f.do(t, http.MethodPost, "/api/v1/chat/ask", `{"message":"building permit","use_context":false}`, &noCtx)
	if noCtx.ConfidenceScore != 0 || len(noCtx.Sources) != 0 {
		t.Errorf("use_context=false should fall back: %+v", noCtx)
	}

	var hist HistoryResponse
	f.do(t, http.MethodGet, "/api/v1/chat/history", "", &hist)
	if hist.Total != 4 || len(hist.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %+v", hist)
	}
	if hist.Messages[0].Role != "user" || hist.Messages[1].Role != "assistant" {
		t.Errorf("unexpected order: %+v", hist.Messages)
	}

	var analytics AnalyticsResponse
	f.do(t, http.MethodGet, "/api/v1/analytics", "", &analytics)
	if analytics.ChatMessages != 4 || analytics.Documents.TotalDocuments != 2 {
		t.Errorf("unexpected analytics: %+v", analytics)
	}

	var cleared ClearResponse
	f.do(t, http.MethodPost, "/api/v1/chat/clear", "", &cleared)
	if cleared.Cleared != 4 || f.log.Len() != 0 {
		t.Errorf("clear: cleared=%d remaining=%d", cleared.Cleared, f.log.Len())
	}

	var bad ErrorResponse
	resp = f.do(t, http.MethodPost, "/api/v1/chat/ask", `{"message":"  "}`, &bad)
	if resp.StatusCode != http.StatusBadRequest || bad.Code != CodeValidationFailed {
		t.Errorf("blank message: status=%d code=%q", resp.StatusCode, bad.Code)
	}
	if f.log.Len() != 0 {
		t.Error("invalid message must not be logged")
	}
}

func TestIngest(t *testing.T) {
	fresh := domdoc.MustNew(domdoc.Params{ID: "v1", Title: "Building Violation - CN1", Category: "construction"})
	f := newFixture(t,
		&stubSource{name: "violations", docs: []domdoc.Document{fresh}},
		&stubSource{name: "broken", err: errors.New("boom")},
	)

	var rep IngestReport
	resp := f.do(t, http.MethodPost, "/api/v1/ingest", "", &rep)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !rep.Applied || rep.Loaded != 1 || rep.FailedSources != 1 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if rep.Sources[1].Error != "fetch failed" {
		t.Errorf("internal error text leaked: %q", rep.Sources[1].Error)
	}
	if f.store.Count() != 1 {
		t.Errorf("expected swapped store of 1, got %d", f.store.Count())
	}

	var ds DataSourcesResponse
	f.do(t, http.MethodGet, "/api/v1/data-sources", "", &ds)
	if len(ds.Sources) != 2 || ds.LastIngestion == nil || ds.LastIngestion.Loaded != 1 {
		t.Errorf("unexpected data sources: %+v", ds)
	}
}

func TestIngest_AllFailKeepsSnapshot(t *testing.T) {
	f := newFixture(t, &stubSource{name: "broken", err: errors.New("boom")})

	var body ErrorResponse
	resp := f.do(t, http.MethodPost, "/api/v1/ingest", `{"limit_per_source":5}`, &body)
	if resp.StatusCode != http.StatusBadGateway || body.Code != CodeNoDocuments {
		t.Errorf("status=%d code=%q", resp.StatusCode, body.Code)
	}
	if f.store.Count() != 2 {
		t.Errorf("old snapshot should be kept, got %d docs", f.store.Count())
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	var body ErrorResponse
	resp := f.do(t, http.MethodGet, "/api/v1/nope", "", &body)
	if resp.StatusCode != http.StatusNotFound || body.Code != CodeNotFound {
		t.Errorf("status=%d code=%q", resp.StatusCode, body.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeInternalError {
		t.Errorf("code = %q", body.Code)
	}
}

func TestWideEvent_IncludesAnnotations(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := docrepo.New()
	if _, err := store.Replace(testDocs()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	searchSvc := searchuc.New(store)
	log := convrepo.New()
	server := NewServer(searchSvc, chatuc.New(searchSvc, log, store), ingestuc.New(nil, store),
		healthuc.New(store, nil), store, log, zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"building permit"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["results"] != int64(1) {
		t.Errorf("results = %v", fields["results"])
	}
	if fields["status"] != int64(http.StatusOK) || fields["path"] != "/api/v1/search" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["request_id"] == "" {
		t.Error("expected request_id")
	}
}
