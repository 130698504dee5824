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

	"github.com/kailas-cloud/bnccrag/internal/bootstrap"
	"github.com/kailas-cloud/bnccrag/internal/config"
	"github.com/kailas-cloud/bnccrag/internal/db"
	"github.com/kailas-cloud/bnccrag/internal/domain"
	logpkg "github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
	"github.com/kailas-cloud/bnccrag/internal/repository/gencache"
	chiTransport "github.com/kailas-cloud/bnccrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/bnccrag/internal/transport/openai"
	"github.com/kailas-cloud/bnccrag/internal/usecase/generation"
	"github.com/kailas-cloud/bnccrag/internal/usecase/grounding"
	healthuc "github.com/kailas-cloud/bnccrag/internal/usecase/health"
	"github.com/kailas-cloud/bnccrag/internal/usecase/rag"
	"github.com/kailas-cloud/bnccrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/bnccrag/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bnccrag API server",
		zap.String("version", version.String()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("chat_model", cfg.Chat.Model),
		zap.Int("top_k", cfg.Index.TopK),
	)

	metrics.RegisterUpstreamMetrics()
	metrics.RegisterRAGMetrics()

	ctx := context.Background()
	// A database outage degrades the service: caches are disabled and remote indexes stay unavailable.
	store, storeErr := bootstrap.OpenStore(ctx, cfg.Database)
	if storeErr != nil {
		logger.Error("Database unavailable, caches disabled", zap.Error(storeErr))
		store = nil
	}
	if store != nil {
		defer store.Close()
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
	}

	embedder := bootstrap.BuildEmbedder(&cfg, store, logger)
	handle := bootstrap.LoadIndex(ctx, cfg.Index, store, storeErr, embedder, logger)

	chat := openaiTransport.NewChatClient(&openaiTransport.Config{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Timeout: time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	})

	retriever := retrieval.New(handle, cfg.Index.TopK, logger)
	generator := generation.New(chat, cfg.Chat.Model, logger)
	verifier := grounding.NewVerifier(logger)

	opts := []rag.Option{rag.WithAvailability(handle)}
	if store != nil && cfg.Cache.GenerationTTLSec > 0 {
		ttl := time.Duration(cfg.Cache.GenerationTTLSec) * time.Second
		opts = append(opts, rag.WithCache(gencache.New(store, ttl, metrics.GenerationCacheTotal, logger)))
		logger.Info("Generation cache enabled", zap.Duration("ttl", ttl))
	}
	pipeline := rag.New(retriever, generator, verifier, rag.Live, logger, opts...)

	healthSvc := newHealthService(handle, store, embedder)
	server := chiTransport.NewServer(pipeline, retriever, healthSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		APIKeys:        cfg.Auth.APIKeys,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Bool("db_loaded", handle.Loaded()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// newHealthService passes nil interfaces (not typed nil pointers) for absent components.
func newHealthService(handle healthuc.Index, store db.Store, embedder domain.Embedder) *healthuc.Service {
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	var checker healthuc.EmbeddingChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		checker = hc
	}
	return healthuc.New(handle, pinger, checker)
}
