package retrieval

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

// Searcher is the vector index as seen by the retriever.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.SimilarityResult, error)
}
