package civicdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/civicdex/internal/db/redis"
	"github.com/kailas-cloud/civicdex/internal/domain/batch"
	domconv "github.com/kailas-cloud/civicdex/internal/domain/conversation"
	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/domain/search/query"
	"github.com/kailas-cloud/civicdex/internal/domain/search/result"
	convrepo "github.com/kailas-cloud/civicdex/internal/repository/conversation"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	"github.com/kailas-cloud/civicdex/internal/repository/fetchcache"
	"github.com/kailas-cloud/civicdex/internal/transport/clerk"
	"github.com/kailas-cloud/civicdex/internal/transport/socrata"
	"github.com/kailas-cloud/civicdex/internal/transport/upstream"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/civicdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/civicdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, substituted in tests.
type searchUseCase interface {
	Search(ctx context.Context, q *query.Query) ([]result.ScoredResult, error)
	SelectDiverse(ctx context.Context, pairs []searchuc.Pair, perCategoryTarget int) ([]result.ScoredResult, error)
}

type chatUseCase interface {
	Answer(ctx context.Context, question string, useContext bool, maxContextDocs int) (chatuc.Response, error)
}

type ingestUseCase interface {
	Ingest(ctx context.Context, limitPerSource int) (batch.Report, error)
	Sources() []ingestuc.SourceInfo
}

type documentReader interface {
	Get(id string) (domdoc.Document, error)
	Stats() docrepo.Stats
}

type historyLog interface {
	Recent(limit int) []domconv.Message
	Clear() int
}

// Client is the civicdex SDK entry point.
type Client struct {
	kv        *dbRedis.Store
	docs      documentReader
	history   historyLog
	searchSvc searchUseCase
	chatSvc   chatUseCase
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. It connects to the fetch cache when one is
// configured, using ctx for the readiness check, but fetches nothing.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("init observer: %w", err)
	}

	static, err := staticDocuments(cfg.static)
	if err != nil {
		return nil, err
	}

	cache, kv, err := newFetchCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(cfg, cache, static)
	if err != nil {
		if kv != nil {
			kv.Close()
		}
		return nil, err
	}

	store := docrepo.New()
	var logOpts []convrepo.Option
	if cfg.historyLimit > 0 {
		logOpts = append(logOpts, convrepo.WithLimit(cfg.historyLimit))
	}
	history := convrepo.New(logOpts...)

	var ingestOpts []ingestuc.Option
	if cfg.limitPerSource > 0 {
		ingestOpts = append(ingestOpts, ingestuc.WithLimitPerSource(cfg.limitPerSource))
	}
	if cfg.sourceTimeout > 0 {
		ingestOpts = append(ingestOpts, ingestuc.WithSourceTimeout(cfg.sourceTimeout))
	}

	search := searchuc.New(store, searchuc.WithPerCategoryTarget(cfg.perCategory))

	return &Client{
		kv:        kv,
		docs:      store,
		history:   history,
		searchSvc: search,
		chatSvc:   chatuc.New(search, history, store, chatuc.WithMaxContextDocs(cfg.maxContextDocs)),
		ingestSvc: ingestuc.New(sources, store, ingestOpts...),
		healthSvc: healthuc.New(store, cache),
		obs:       obs,
	}, nil
}

func newFetchCache(ctx context.Context, cfg *clientConfig) (*fetchcache.Cache, *dbRedis.Store, error) {
	var opts []fetchcache.Option
	if cfg.cacheKeyPrefix != "" {
		opts = append(opts, fetchcache.WithKeyPrefix(cfg.cacheKeyPrefix))
	}

	switch cfg.cacheDriver {
	case fetchcache.DriverNone, "":
		return fetchcache.NewNop(), nil, nil
	case fetchcache.DriverMemory:
		return fetchcache.NewMemory(cfg.cacheTTL, opts...), nil, nil
	case fetchcache.DriverRedis, fetchcache.DriverValkey:
		kv, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.cacheAddrs, Password: cfg.cachePassword})
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", cfg.cacheDriver, err)
		}
		if err := kv.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.cacheDriver, err)
		}
		return fetchcache.NewRemote(kv, cfg.cacheDriver, cfg.cacheTTL, opts...), kv, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver: %q", cfg.cacheDriver)
	}
}

func buildSources(cfg *clientConfig, cache *fetchcache.Cache, static []domdoc.Document) ([]ingestuc.Source, error) {
	var sources []ingestuc.Source

	if cfg.openData {
		var headers map[string]string
		if cfg.appToken != "" {
			headers = map[string]string{"X-App-Token": cfg.appToken}
		}
		client := upstream.New(upstream.Config{
			Name:              "open_data",
			RequestsPerSecond: cfg.rps,
			Headers:           headers,
			HTTPClient:        cfg.httpClient,
			Cache:             cache,
		})
		ss, err := socrata.NewSources(client, cfg.openDataURL, cfg.datasets)
		if err != nil {
			return nil, err
		}
		for _, s := range ss {
			sources = append(sources, s)
		}
	}

	if cfg.clerk {
		client := upstream.New(upstream.Config{
			Name:              "clerk",
			RequestsPerSecond: cfg.rps,
			HTTPClient:        cfg.httpClient,
			Cache:             cache,
		})
		for _, s := range clerk.NewSources(client, cfg.clerkURL, cfg.recentLimit, cfg.categoryLimits, nil) {
			sources = append(sources, s)
		}
	}

	if len(static) > 0 {
		sources = append(sources, staticSource{docs: static})
	}

	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	return sources, nil
}

// Close releases the fetch cache connection, if any.
func (c *Client) Close() {
	if c.kv != nil {
		c.kv.Close()
	}
}

// Load fetches every source with the configured per-source limit and
// replaces the loaded documents. On total failure the previous documents are
// kept and ErrNoDocuments is returned alongside the report.
func (c *Client) Load(ctx context.Context) (IngestReport, error) {
	return c.Refresh(ctx, 0)
}

// Refresh is Load with an explicit per-source limit. limitPerSource <= 0 uses
// the configured default.
func (c *Client) Refresh(ctx context.Context, limitPerSource int) (IngestReport, error) {
	start := time.Now()
	r, err := c.ingestSvc.Ingest(ctx, limitPerSource)
	report := fromReport(r)
	if report.Applied {
		c.obs.refreshed(report.Loaded, time.Now())
	}
	c.obs.observe("refresh", start, err, "loaded", report.Loaded, "fetched", report.Fetched)
	return report, err
}

// Sources lists the configured upstream sources in fetch order.
func (c *Client) Sources() []SourceInfo {
	in := c.ingestSvc.Sources()
	out := make([]SourceInfo, len(in))
	for i, s := range in {
		out[i] = SourceInfo{Name: s.Name, Endpoint: s.Endpoint}
	}
	return out
}

// Search ranks loaded documents by lexical overlap with q.Text.
// An empty text returns no results.
func (c *Client) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	start := time.Now()
	dq, err := query.New(q.Text, q.Category, q.Limit)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		c.obs.observe("search", start, err)
		return nil, err
	}
	hits, err := c.searchSvc.Search(ctx, &dq)
	c.obs.observe("search", start, err, "results", len(hits))
	if err != nil {
		return nil, err
	}
	return fromResults(hits), nil
}

// SelectDiverse runs each pair and keeps up to perCategoryTarget documents
// per category. perCategoryTarget <= 0 uses the configured default.
func (c *Client) SelectDiverse(ctx context.Context, pairs []Pair, perCategoryTarget int) ([]SearchResult, error) {
	start := time.Now()
	in := make([]searchuc.Pair, len(pairs))
	for i, p := range pairs {
		in[i] = searchuc.Pair{Text: p.Text, Category: p.Category}
	}
	hits, err := c.searchSvc.SelectDiverse(ctx, in, perCategoryTarget)
	c.obs.observe("select_diverse", start, err, "results", len(hits))
	if err != nil {
		return nil, err
	}
	return fromResults(hits), nil
}

// Ask answers a question from the loaded documents and records both sides
// in the conversation log.
func (c *Client) Ask(ctx context.Context, question string, opts AskOptions) (Answer, error) {
	start := time.Now()
	resp, err := c.chatSvc.Answer(ctx, question, !opts.WithoutContext, opts.MaxContextDocs)
	c.obs.observe("ask", start, err)
	if err != nil {
		return Answer{}, err
	}
	return fromResponse(resp), nil
}

// History returns up to limit most recent messages, oldest first.
func (c *Client) History(limit int) []Message {
	return fromMessages(c.history.Recent(limit))
}

// ClearHistory empties the conversation log and reports how many messages
// were removed.
func (c *Client) ClearHistory() int {
	return c.history.Clear()
}

// Get returns one loaded document by ID.
func (c *Client) Get(id string) (Document, error) {
	d, err := c.docs.Get(id)
	if err != nil {
		return Document{}, err
	}
	return fromDocument(d), nil
}

// Stats aggregates the loaded documents.
func (c *Client) Stats() Stats {
	return fromStats(c.docs.Stats())
}

// staticSource serves documents supplied through WithDocuments.
type staticSource struct {
	docs []domdoc.Document
}

func (staticSource) Name() string     { return "static" }
func (staticSource) Endpoint() string { return "" }

func (s staticSource) Fetch(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.docs, nil
}

func staticDocuments(in []Document) ([]domdoc.Document, error) {
	out := make([]domdoc.Document, 0, len(in))
	for _, d := range in {
		doc, err := toDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
