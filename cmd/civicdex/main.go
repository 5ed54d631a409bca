package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civicdex/internal/config"
	dbRedis "github.com/kailas-cloud/civicdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/civicdex/internal/logger"
	"github.com/kailas-cloud/civicdex/internal/metrics"
	convrepo "github.com/kailas-cloud/civicdex/internal/repository/conversation"
	docrepo "github.com/kailas-cloud/civicdex/internal/repository/document"
	"github.com/kailas-cloud/civicdex/internal/repository/fetchcache"
	chiTransport "github.com/kailas-cloud/civicdex/internal/transport/chi"
	"github.com/kailas-cloud/civicdex/internal/transport/clerk"
	"github.com/kailas-cloud/civicdex/internal/transport/socrata"
	"github.com/kailas-cloud/civicdex/internal/transport/upstream"
	chatuc "github.com/kailas-cloud/civicdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/civicdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/civicdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/civicdex/internal/usecase/search"
	"github.com/kailas-cloud/civicdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	logger, logFile := logpkg.TeeFile(logger, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   true,
	})
	defer func() {
		_ = logger.Sync()
		_ = logFile.Close()
	}()

	logger.Info("Starting civicdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("fetch_cache", cfg.FetchCache.Driver),
		zap.Bool("open_data", cfg.Sources.OpenData.Enabled),
		zap.Bool("clerk", cfg.Sources.Clerk.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterCivicMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache := buildFetchCache(ctx, cfg.FetchCache, logger)
	defer closeCache()

	sources, err := buildSources(cfg.Sources, cache, logger)
	if err != nil {
		logger.Fatal("Failed to configure sources", zap.Error(err))
	}

	// Repositories
	store := docrepo.New()
	history := convrepo.New(convrepo.WithLimit(cfg.Chat.HistoryLimit))

	// Use case services
	searchSvc := searchuc.New(store,
		searchuc.WithMetrics(metrics.SearchRequestsTotal),
		searchuc.WithPerCategoryTarget(cfg.Search.PerCategoryTarget),
	)
	chatSvc := chatuc.New(searchSvc, history, store,
		chatuc.WithMetrics(metrics.ChatAnswersTotal),
		chatuc.WithLogger(logger),
		chatuc.WithMaxContextDocs(cfg.Chat.MaxContextDocs),
	)
	ingestSvc := ingestuc.New(sources, store,
		ingestuc.WithLimitPerSource(cfg.Ingest.LimitPerSource),
		ingestuc.WithSourceTimeout(time.Duration(cfg.Ingest.TimeoutSec)*time.Second),
		ingestuc.WithLogger(logger),
		ingestuc.WithMetrics(metrics.IngestRunsTotal, metrics.IngestSourceDocuments),
	)
	healthSvc := healthuc.New(store, cache)

	server := chiTransport.NewServer(searchSvc, chatSvc, ingestSvc, healthSvc, store, history, logger)

	if cfg.Ingest.OnStartup {
		go func() {
			if _, err := ingestSvc.Ingest(ctx, 0); err != nil {
				logger.Warn("Startup ingestion failed", zap.Error(err))
			}
		}()
	}
	if cfg.Ingest.RefreshIntervalSec > 0 {
		go ingestSvc.Run(ctx, time.Duration(cfg.Ingest.RefreshIntervalSec)*time.Second)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildFetchCache picks the payload cache backend. A remote cache that cannot
// be reached is fatal: the operator asked for it explicitly.
func buildFetchCache(ctx context.Context, cfg config.FetchCacheConfig, logger *zap.Logger) (*fetchcache.Cache, func()) {
	ttl := time.Duration(cfg.TTLSec) * time.Second
	opts := []fetchcache.Option{
		fetchcache.WithKeyPrefix(cfg.KeyPrefix),
		fetchcache.WithMetrics(metrics.FetchCacheTotal),
		fetchcache.WithLogger(logger),
	}

	switch cfg.Driver {
	case config.CacheDriverMemory:
		return fetchcache.NewMemory(ttl, opts...), func() {}
	case config.CacheDriverRedis, config.CacheDriverValkey:
		kv, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			logger.Fatal("Failed to create fetch cache store", zap.Error(err))
		}
		if err := kv.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Fetch cache not ready", zap.Error(err))
		}
		logger.Info("Connected to fetch cache", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return fetchcache.NewRemote(kv, cfg.Driver, ttl, opts...), kv.Close
	default:
		return fetchcache.NewNop(), func() {}
	}
}

// buildSources creates one upstream client per API and the sources behind it.
func buildSources(cfg config.SourcesConfig, cache *fetchcache.Cache, logger *zap.Logger) ([]ingestuc.Source, error) {
	var sources []ingestuc.Source

	if od := cfg.OpenData; od.Enabled {
		client := upstream.New(upstream.Config{
			Name:              "open_data",
			RequestsPerSecond: od.RequestsPerSecond,
			Headers:           map[string]string{"X-App-Token": od.AppToken},
			Cache:             cache,
			Logger:            logger,
		})
		ss, err := socrata.NewSources(client, od.BaseURL, od.Datasets)
		if err != nil {
			return nil, fmt.Errorf("open data: %w", err)
		}
		for _, s := range ss {
			sources = append(sources, s)
		}
	}

	if cl := cfg.Clerk; cl.Enabled {
		client := upstream.New(upstream.Config{
			Name:              "clerk",
			RequestsPerSecond: cl.RequestsPerSecond,
			Cache:             cache,
			Logger:            logger,
		})
		for _, s := range clerk.NewSources(client, cl.BaseURL, cl.RecentLimit, cl.CategoryLimits, logger) {
			sources = append(sources, s)
		}
	}

	for _, s := range sources {
		logger.Info("Source configured", zap.String("source", s.Name()), zap.String("endpoint", s.Endpoint()))
	}
	return sources, nil
}
