// Package bootstrap assembles the store, embedder chain and index handle shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/config"
	"github.com/kailas-cloud/bnccrag/internal/db"
	dbRedis "github.com/kailas-cloud/bnccrag/internal/db/redis"
	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/index"
	"github.com/kailas-cloud/bnccrag/internal/index/local"
	"github.com/kailas-cloud/bnccrag/internal/index/valkey"
	"github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
	"github.com/kailas-cloud/bnccrag/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/bnccrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bnccrag/internal/usecase/embedding"
)

// embeddingCacheTTL bounds how long a cached query vector lives.
const embeddingCacheTTL = 30 * 24 * time.Hour

// OpenStore connects to the database when one is configured. It returns nil, nil otherwise.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// BuildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// store may be nil; caching is skipped then.
func BuildEmbedder(cfg *config.Config, store db.KVStore, log *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		Config: openaiTransport.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			Timeout: time.Duration(cfg.HTTP.UpstreamTimeoutSec) * time.Second,
		},
		Dimensions: cfg.Embedding.Dimensions,
	})

	var embedder domain.Embedder = base
	if store != nil && cfg.Embedding.Cache {
		embedder = embcache.New(base, store, cfg.Embedding.Model, embeddingCacheTTL, metrics.EmbeddingCacheTotal, log)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Model, log)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embedder
}

// IndexLoader picks the backend named by cfg.Driver. Remote drivers need a store.
func IndexLoader(cfg config.IndexConfig, store db.Store, embedder domain.Embedder) (index.Loader, error) {
	switch cfg.Driver {
	case config.DriverLocal:
		return local.Loader(cfg.Path, embedder, local.WithFetchK(cfg.FetchK)), nil
	case config.DriverValkey, config.DriverRedis:
		if store == nil {
			return nil, fmt.Errorf("index driver %q requires a database", cfg.Driver)
		}
		return valkey.Loader(store, embedder, cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Driver)
	}
}

// LoadIndex builds the process-wide handle. It never fails: a bad driver, a load error or,
// for remote drivers, a non-nil storeErr from OpenStore yields an unavailable handle.
func LoadIndex(
	ctx context.Context,
	cfg config.IndexConfig,
	store db.Store,
	storeErr error,
	embedder domain.Embedder,
	log *zap.Logger,
) *index.Handle {
	name := indexName(cfg)
	if storeErr != nil && cfg.Remote() {
		err := fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, storeErr)
		log.Error("index load failed", logger.Event("rag_db_load_failed"), zap.String("index", name), zap.Error(err))
		return index.Unavailable(name, err)
	}
	loader, err := IndexLoader(cfg, store, embedder)
	if err != nil {
		log.Error("index load failed", logger.Event("rag_db_load_failed"), zap.String("index", name), zap.Error(err))
		return index.Unavailable(name, err)
	}
	return index.Load(ctx, name, loader, log)
}

func indexName(cfg config.IndexConfig) string {
	if cfg.Driver == config.DriverLocal {
		return cfg.Path
	}
	return cfg.Name
}
