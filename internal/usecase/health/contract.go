package health

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

// Index is the shared index handle as seen by the health check.
type Index interface {
	Loaded() bool
	Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error)
}

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
