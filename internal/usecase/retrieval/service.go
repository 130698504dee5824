// Package retrieval selects BNCC context for a request: filtered search with one unfiltered fallback.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

// DefaultTopK is used when neither the caller nor configuration sets K.
const DefaultTopK = 5

// Result is the outcome of a live retrieval.
// Err records the last absorbed failure (wrapping ErrIndexUnavailable or ErrRetrievalFailed).
type Result struct {
	Hits         []domain.SimilarityResult
	Filter       domain.Filter
	FallbackUsed bool
	Outcome      string
	Err          error
}

// Documents returns the retrieved documents, most similar first.
func (r Result) Documents() []domain.Document {
	return domain.Documents(r.Hits)
}

// Service is stateless apart from the shared index.
type Service struct {
	index  Searcher
	topK   int
	logger *zap.Logger
}

// New creates a retriever. topK <= 0 selects DefaultTopK.
func New(index Searcher, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{index: index, topK: topK, logger: logger}
}

// TopK returns the configured default K.
func (s *Service) TopK() int { return s.topK }

// Retrieve never fails: search errors are absorbed into Result.Err and an empty filtered
// result is retried once without any filter.
func (s *Service) Retrieve(ctx context.Context, query string, filter domain.Filter, topK int) Result {
	log := logger.FromContextOr(ctx, s.logger)
	if topK <= 0 {
		topK = s.topK
	}
	res := Result{Filter: filter}

	hits, err := s.index.Search(ctx, query, topK, filter)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		log.Warn("retrieval skipped", logger.Event("rag_retrieve_skipped"), zap.String("reason", "db_unavailable"))
		res.Outcome = metrics.OutcomeUnavailable
		res.Err = err
		metrics.RetrievalTotal.WithLabelValues(res.Outcome).Inc()
		return res
	}
	if err != nil {
		log.Error("similarity search failed", logger.Event("rag_similarity_failed"), zap.Error(err))
		res.Err = fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	if len(hits) == 0 {
		fallback, fbErr := s.index.Search(ctx, query, topK, domain.Filter{})
		if fbErr != nil {
			log.Error("unfiltered fallback failed", logger.Event("rag_fallback_failed"), zap.Error(fbErr))
			res.Err = fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, fbErr)
		} else {
			hits = fallback
			res.FallbackUsed = true
			log.Info("fallback without filter", logger.Event("rag_fallback_no_filter"), zap.Int("top_k", topK))
		}
	}
	res.Hits = hits

	switch {
	case len(hits) == 0:
		res.Outcome = metrics.OutcomeEmpty
	case res.FallbackUsed:
		res.Outcome = metrics.OutcomeFallback
	default:
		res.Outcome = metrics.OutcomeFiltered
	}
	metrics.RetrievalTotal.WithLabelValues(res.Outcome).Inc()

	log.Info("retrieval done",
		logger.Event("rag_retrieve_done"),
		zap.Int("prompt_len", len([]rune(query))),
		zap.Any("filters", filter.Applied()),
		zap.Int("retrieved", len(hits)),
		zap.Bool("fallbackUsed", res.FallbackUsed),
	)
	return res
}

// RetrieveWithScores is the fail-loud diagnostic variant: no fallback, errors propagate.
func (s *Service) RetrieveWithScores(
	ctx context.Context, query string, filter domain.Filter, topK int,
) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		topK = s.topK
	}
	hits, err := s.index.Search(ctx, query, topK, filter)
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}
	return hits, nil
}
