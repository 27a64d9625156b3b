package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	spyglass "github.com/crowsnest-io/spyglass"
	"github.com/crowsnest-io/spyglass/internal/config"
	dbRedis "github.com/crowsnest-io/spyglass/internal/db/redis"
	"github.com/crowsnest-io/spyglass/internal/domain"
	logpkg "github.com/crowsnest-io/spyglass/internal/logger"
	"github.com/crowsnest-io/spyglass/internal/metrics"
	"github.com/crowsnest-io/spyglass/internal/repository/embcache"
	itemrepo "github.com/crowsnest-io/spyglass/internal/repository/item"
	sourcerepo "github.com/crowsnest-io/spyglass/internal/repository/source"
	chiTransport "github.com/crowsnest-io/spyglass/internal/transport/chi"
	openaiEmb "github.com/crowsnest-io/spyglass/internal/transport/openai"
	healthuc "github.com/crowsnest-io/spyglass/internal/usecase/health"
	"github.com/crowsnest-io/spyglass/internal/version"
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
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting spyglass API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Strings("sources", cfg.Sources.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Build the embedder chain. Without an API key the engine runs
	// lexical-only, which is a supported degraded mode, not an error.
	var embedder domain.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder = buildEmbedder(cfg, store, logger)
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("No embedding API key configured; running lexical-only")
	}

	// One source adapter per enabled collection variant
	sources := make([]spyglass.Source, 0, len(cfg.Sources.Enabled))
	for _, name := range cfg.Sources.Enabled {
		sources = append(sources, sourcerepo.New(store, domain.SourceType(name), cfg.Sources.KeyPrefix))
	}
	items := itemrepo.New(store, cfg.Sources.KeyPrefix)

	opts := []spyglass.Option{
		spyglass.WithSources(sources...),
		spyglass.WithItemReader(items),
		spyglass.WithLogger(logger),
		spyglass.WithRetrieverConfig(spyglass.RetrieverConfig{
			Threshold:         cfg.Search.Threshold,
			DefaultLimit:      cfg.Search.DefaultLimit,
			SourceTimeout:     time.Duration(cfg.Search.SourceTimeoutMS) * time.Millisecond,
			FallbackDampening: cfg.Search.FallbackDampening,
		}),
		spyglass.WithDuplicateConfig(spyglass.DuplicateConfig{
			Threshold:        cfg.Duplicates.Threshold,
			KeywordThreshold: cfg.Duplicates.KeywordThreshold,
			MaxResults:       cfg.Duplicates.MaxResults,
			MaxBatchSize:     cfg.Duplicates.MaxBatchSize,
		}),
		spyglass.WithGapBounds(spyglass.GapBounds{
			DemandCeiling: cfg.Gaps.DemandCeiling,
			PenaltyFloor:  cfg.Gaps.PenaltyFloor,
		}),
		spyglass.WithDefaultSearchOptions(spyglass.SearchOptions{
			Limit: cfg.Search.DefaultLimit,
		}),
	}
	if embedder != nil {
		opts = append(opts, spyglass.WithEmbedder(embedder))
	}
	if cfg.Search.Cache.MaxEntries > 0 {
		opts = append(opts, spyglass.WithResultCache(
			cfg.Search.Cache.MaxEntries,
			time.Duration(cfg.Search.Cache.TTLSec)*time.Second,
		))
	}

	engine, err := spyglass.New(opts...)
	if err != nil {
		logger.Fatal("Failed to assemble engine", zap.Error(err))
	}

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(engine, healthSvc, logger).
		WithMaxLimit(cfg.Search.MaxLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(cfg config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	return embcache.New(
		base,
		store,
		cfg.Sources.KeyPrefix,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal,
		logger,
	)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
// A nil embedder always reports healthy: lexical-only is a valid deployment.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if h.embedder == nil {
		return nil
	}
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
