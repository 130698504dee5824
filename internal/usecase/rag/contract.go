package rag

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/repository/gencache"
	"github.com/kailas-cloud/bnccrag/internal/usecase/grounding"
	"github.com/kailas-cloud/bnccrag/internal/usecase/retrieval"
)

// Retriever selects context.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filter domain.Filter, topK int) retrieval.Result
	RetrieveWithScores(ctx context.Context, query string, filter domain.Filter, topK int) ([]domain.SimilarityResult, error)
}

// Generator completes prompts.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
	GenerateLessonPlan(ctx context.Context, prompt, model string) (string, error)
	Model(override string) string
}

// Verifier reports grounding.
type Verifier interface {
	Check(ctx context.Context, text string, docs []domain.Document) grounding.Report
}

// Cache stores successful live generations.
type Cache interface {
	Get(ctx context.Context, k gencache.Key) (string, bool)
	Put(ctx context.Context, k gencache.Key, text string)
}

// Availability reports whether the shared index loaded.
type Availability interface {
	Loaded() bool
}
