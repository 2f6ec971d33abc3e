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

	"github.com/OpenPecha/openpecha-search/internal/config"
	"github.com/OpenPecha/openpecha-search/internal/db/milvus"
	dbRedis "github.com/OpenPecha/openpecha-search/internal/db/redis"
	"github.com/OpenPecha/openpecha-search/internal/domain"
	logpkg "github.com/OpenPecha/openpecha-search/internal/logger"
	"github.com/OpenPecha/openpecha-search/internal/metrics"
	"github.com/OpenPecha/openpecha-search/internal/repository/embcache"
	searchrepo "github.com/OpenPecha/openpecha-search/internal/repository/search"
	chiTransport "github.com/OpenPecha/openpecha-search/internal/transport/chi"
	openaiEmb "github.com/OpenPecha/openpecha-search/internal/transport/openai"
	healthuc "github.com/OpenPecha/openpecha-search/internal/usecase/health"
	searchuc "github.com/OpenPecha/openpecha-search/internal/usecase/search"
	"github.com/OpenPecha/openpecha-search/internal/version"
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

	logger.Info("Starting openpecha-search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("milvus_uri", cfg.Milvus.URI),
		zap.String("collection", cfg.Milvus.Collection),
	)

	store, err := milvus.NewStore(milvus.Config{
		URI:            cfg.Milvus.URI,
		Token:          cfg.Milvus.Token,
		RequestTimeout: time.Duration(cfg.Milvus.RequestTimeout) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create Milvus store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the search backend to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Milvus.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search backend not ready", zap.Error(err))
	}
	logger.Info("Connected to search backend")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	embedder, closeCache := buildEmbedder(cfg.Embedding, logger)
	defer closeCache()
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	searchRepo := searchrepo.New(store, searchrepo.Config{
		Collection:     cfg.Milvus.Collection,
		SparseField:    cfg.Milvus.SparseField,
		DenseField:     cfg.Milvus.DenseField,
		TextField:      cfg.Milvus.TextField,
		RRFK:           cfg.Milvus.RRFK,
		DenseDropRatio: cfg.Milvus.DenseDropRatio,
	})

	searchSvc := searchuc.New(searchRepo, embedder)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// buildEmbedder assembles the embedder chain: OpenAI provider, optionally
// wrapped by the Redis-backed cache. The returned func closes the cache store.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, func()) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	if !cfg.Cache.Enabled {
		return base, func() {}
	}

	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create embedding cache store", zap.Error(err))
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	cached := embcache.New(base, kv, ttl, metrics.EmbeddingCacheTotal, logger)
	return cached, kv.Close
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
