package civicdex

import (
	"context"

	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/civicdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/civicdex/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn  func(ctx context.Context, q *query.Query) ([]result.ScoredResult, error)
	diverseFn func(ctx context.Context, pairs []searchuc.Pair, target int) ([]result.ScoredResult, error)
}

func (m *mockSearchUC) Search(ctx context.Context, q *query.Query) ([]result.ScoredResult, error) {
	return m.searchFn(ctx, q)
}

func (m *mockSearchUC) SelectDiverse(
	ctx context.Context, pairs []searchuc.Pair, target int,
) ([]result.ScoredResult, error) {
	return m.diverseFn(ctx, pairs, target)
}

// --- chatUseCase mock ---

type mockChatUC struct {
	answerFn func(ctx context.Context, question string, useContext bool, maxDocs int) (chatuc.Response, error)
}

func (m *mockChatUC) Answer(
	ctx context.Context, question string, useContext bool, maxDocs int,
) (chatuc.Response, error) {
	return m.answerFn(ctx, question, useContext, maxDocs)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn func(ctx context.Context, limit int) (batch.Report, error)
	sources  []ingestuc.SourceInfo
}

func (m *mockIngestUC) Ingest(ctx context.Context, limit int) (batch.Report, error) {
	return m.ingestFn(ctx, limit)
}

func (m *mockIngestUC) Sources() []ingestuc.SourceInfo { return m.sources }

// --- documentReader mock ---

type mockDocs struct {
	docs  map[string]domdoc.Document
	stats docrepo.Stats
}

func (m *mockDocs) Get(id string) (domdoc.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, ErrDocumentNotFound
	}
	return d, nil
}

func (m *mockDocs) Stats() docrepo.Stats { return m.stats }

// --- historyLog mock ---

type mockHistory struct {
	msgs    []domconv.Message
	cleared int
}

func (m *mockHistory) Recent(limit int) []domconv.Message {
	if limit > 0 && limit < len(m.msgs) {
		return m.msgs[len(m.msgs)-limit:]
	}
	return m.msgs
}

func (m *mockHistory) Clear() int {
	n := len(m.msgs)
	m.msgs = nil
	m.cleared += n
	return n
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
