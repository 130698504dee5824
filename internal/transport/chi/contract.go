package chi

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/usecase/health"
	"github.com/kailas-cloud/bnccrag/internal/usecase/rag"
)

// Pipeline is the RAG orchestrator behind the generation endpoints.
type Pipeline interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
	LessonPlan(ctx context.Context, req rag.LessonPlanRequest) (rag.LessonPlanResult, error)
}

// Searcher backs the diagnostic search endpoint.
type Searcher interface {
	RetrieveWithScores(ctx context.Context, query string, filter domain.Filter, topK int) ([]domain.SimilarityResult, error)
}

// HealthChecker reports index availability.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
