package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	civicdex "github.com/kailas-cloud/civicdex/pkg/sdk"
)

type fakeClient struct {
	report    civicdex.IngestReport
	loadErr   error
	results   []civicdex.SearchResult
	answer    civicdex.Answer
	stats     civicdex.Stats
	sources   []civicdex.SourceInfo
	lastQuery civicdex.Query
	lastPairs []civicdex.Pair
	lastK     int
	lastAsk   civicdex.AskOptions
	closed    bool
}

func (f *fakeClient) Load(context.Context) (civicdex.IngestReport, error) { return f.report, f.loadErr }

func (f *fakeClient) Search(_ context.Context, q civicdex.Query) ([]civicdex.SearchResult, error) {
	f.lastQuery = q
	return f.results, nil
}

func (f *fakeClient) SelectDiverse(_ context.Context, pairs []civicdex.Pair, k int) ([]civicdex.SearchResult, error) {
	f.lastPairs, f.lastK = pairs, k
	return f.results, nil
}

func (f *fakeClient) Ask(_ context.Context, _ string, opts civicdex.AskOptions) (civicdex.Answer, error) {
	f.lastAsk = opts
	return f.answer, nil
}

func (f *fakeClient) Stats() civicdex.Stats          { return f.stats }
func (f *fakeClient) Sources() []civicdex.SourceInfo { return f.sources }
func (f *fakeClient) Close()                         { f.closed = true }

func sampleResults() []civicdex.SearchResult {
	eff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []civicdex.SearchResult{{
		Document: civicdex.Document{
			ID: "chicago_permits_1", Title: "Building Permit - New Construction",
			Category: "construction", DocumentType: "permit", Authority: "Chicago Department of Buildings",
			EffectiveDate: &eff,
		},
		Score:        2.5,
		MatchedTerms: []string{"building"},
	}}
}

func setupTestClient(t *testing.T, f *fakeClient) *bytes.Buffer {
	t.Helper()
	orig := newClient
	newClient = func(context.Context) (civicClient, error) { return f, nil }

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		newClient = orig
		rootCmd.SetArgs(nil)
		jsonOutput = false
	})
	return buf
}

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestClient(t, &fakeClient{})
	err := run("search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Table(t *testing.T) {
	f := &fakeClient{results: sampleResults()}
	buf := setupTestClient(t, f)

	require.NoError(t, run("search", "-n", "5", "-c", "construction", "new building"))

	assert.Equal(t, civicdex.Query{Text: "new building", Category: "construction", Limit: 5}, f.lastQuery)
	assert.Contains(t, buf.String(), "Building Permit - New Construction")
	assert.Contains(t, buf.String(), "2024-03-01")
	assert.Contains(t, buf.String(), "matched: building")
	assert.True(t, f.closed)
}

func TestSearchCmd_NoResults(t *testing.T) {
	buf := setupTestClient(t, &fakeClient{})
	require.NoError(t, run("search", "--limit", "10", "--category", "", "zzz"))
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	buf := setupTestClient(t, &fakeClient{results: sampleResults()})
	require.NoError(t, run("search", "--json", "building"))
	assert.Contains(t, buf.String(), `"ID": "chicago_permits_1"`)
}

func TestSearchCmd_LoadFailure(t *testing.T) {
	setupTestClient(t, &fakeClient{loadErr: civicdex.ErrNoDocuments})
	err := run("search", "building")
	require.ErrorIs(t, err, civicdex.ErrNoDocuments)
}

func TestSearchCmd_WarnsOnFailedSource(t *testing.T) {
	f := &fakeClient{report: civicdex.IngestReport{Sources: []civicdex.SourceReport{
		{Name: "legislation_recent", Err: errors.New("timeout")},
	}}}
	buf := setupTestClient(t, f)
	require.NoError(t, run("search", "building"))
	assert.Contains(t, buf.String(), "source legislation_recent failed")
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"construction=new building", "business=license=food"})
	require.NoError(t, err)
	assert.Equal(t, []civicdex.Pair{
		{Category: "construction", Text: "new building"},
		{Category: "business", Text: "license=food"},
	}, pairs)

	_, err = parsePairs([]string{"no separator"})
	assert.Error(t, err)
	_, err = parsePairs([]string{"=text"})
	assert.Error(t, err)
}

func TestDiverseCmd(t *testing.T) {
	f := &fakeClient{results: sampleResults()}
	setupTestClient(t, f)
	require.NoError(t, run("diverse", "-k", "2", "construction=new building", "business=license"))
	assert.Len(t, f.lastPairs, 2)
	assert.Equal(t, 2, f.lastK)
}

func TestAskCmd(t *testing.T) {
	f := &fakeClient{answer: civicdex.Answer{
		Text: "To get a permit, apply online.", Intent: "process", Confidence: 0.8,
		Sources: sampleResults(),
	}}
	buf := setupTestClient(t, f)
	require.NoError(t, run("ask", "--max-docs", "2", "how do I get a permit"))
	assert.Equal(t, civicdex.AskOptions{MaxContextDocs: 2}, f.lastAsk)
	assert.Contains(t, buf.String(), "To get a permit, apply online.")
	assert.Contains(t, buf.String(), "intent=process")
	assert.Contains(t, buf.String(), "Sources:")
}

func TestStatsCmd(t *testing.T) {
	f := &fakeClient{stats: civicdex.Stats{
		Total:      3,
		ByCategory: map[string]int{"construction": 2, "business": 1},
	}}
	buf := setupTestClient(t, f)
	require.NoError(t, run("stats"))
	out := buf.String()
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "By category:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("business")), bytes.Index(buf.Bytes(), []byte("construction")))
}

func TestSourcesCmd_JSON(t *testing.T) {
	f := &fakeClient{sources: []civicdex.SourceInfo{{Name: "building_permits", Endpoint: "https://x/resource/ydr8-5enu.json"}}}
	buf := setupTestClient(t, f)
	require.NoError(t, run("sources", "--json"))
	assert.Contains(t, buf.String(), `"Name": "building_permits"`)
	assert.True(t, f.closed)
}

func TestVersionCmd(t *testing.T) {
	buf := setupTestClient(t, &fakeClient{})
	require.NoError(t, run("version"))
	assert.Contains(t, buf.String(), "civicctl dev")
}
