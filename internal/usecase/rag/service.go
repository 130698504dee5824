// Package rag orchestrates retrieval, prompt assembly, generation and grounding under an explicit error policy.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
	"github.com/kailas-cloud/bnccrag/internal/repository/gencache"
	"github.com/kailas-cloud/bnccrag/internal/usecase/grounding"
	"github.com/kailas-cloud/bnccrag/internal/usecase/prompt"
)

const variantLive = "live"

// LessonPlanRequest asks for a strict, code-citing lesson plan.
type LessonPlanRequest struct {
	Question string
	Filter   domain.Filter
	TopK     int
	Model    string
	// OnHits, when set, sees the retrieved context before generation starts.
	OnHits func([]domain.SimilarityResult)
}

// LessonPlanResult is the strict-path answer.
type LessonPlanResult struct {
	Text string
	// Codes are the BNCC codes cited by Text, in order of appearance.
	Codes      []string
	Ungrounded []string
	// NotFound is set when the answer is the not-found sentinel.
	NotFound bool
	Degraded bool
	Hits     []domain.SimilarityResult
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	retriever Retriever
	generator Generator
	verifier  Verifier
	policy    Policy
	cache     Cache
	index     Availability
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the live generation cache.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithAvailability reports index state in generation logs.
func WithAvailability(a Availability) Option { return func(s *Service) { s.index = a } }

// New creates an orchestrator governed by policy.
func New(r Retriever, g Generator, v Verifier, policy Policy, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{retriever: r, generator: g, verifier: v, policy: policy, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy returns the governing error table.
func (s *Service) Policy() Policy { return s.policy }

// Generate runs the live-shaped pipeline. Under the Live policy it never returns an error:
// a failed completion echoes the assembled prompt and marks the result Degraded.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	log := logger.FromContextOr(ctx, s.logger)
	out := domain.GenerationResult{
		UsedFilters: domain.UsedFilters{IncludeAssessment: req.IncludeAssessment, IncludeSlides: req.IncludeSlides},
	}

	key := gencache.Key{Variant: variantLive, Model: s.generator.Model(""), Request: req}
	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, key); ok {
			out.Text = text
			log.Info("generation served from cache", logger.Event("rag_generate"), zap.Bool("cached", true))
			return out, nil
		}
	}

	hits, absorbed, err := s.retrieve(ctx, req.Prompt, req.Filter(), 0)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	docs := domain.Documents(hits)
	// a contextless answer must not outlive the outage that caused it
	cacheable := !absorbed && len(docs) > 0

	full := prompt.Assemble(req.Prompt, domain.Contents(docs), req.IncludeAssessment, req.IncludeSlides)

	text, err := s.generator.Generate(ctx, full, "")
	if err != nil {
		if s.policy.Action(GenerationFailure) == Propagate {
			return domain.GenerationResult{}, err
		}
		text = full
		out.Degraded = true
	}
	out.Text = text

	if !out.Degraded {
		if _, err := s.checkGrounding(ctx, text, docs); err != nil {
			return domain.GenerationResult{}, err
		}
		if s.cache != nil && cacheable {
			s.cache.Put(ctx, key, text)
		}
	}
	s.countGeneration(out.Degraded)

	log.Info("generation done",
		logger.Event("rag_generate"),
		zap.Int("prompt_len", len([]rune(req.Prompt))),
		zap.Any("filters", req.Filter().Applied()),
		zap.Int("context_len", len(docs)),
		zap.Bool("includeAssessment", req.IncludeAssessment),
		zap.Bool("includeSlides", req.IncludeSlides),
		zap.Int("response_len", len([]rune(out.Text))),
		zap.Bool("dbLoaded", s.index != nil && s.index.Loaded()),
		zap.Bool("degraded", out.Degraded),
	)
	return out, nil
}

// LessonPlan runs the strict pipeline: code-citing prompt, not-found short-circuit on empty context.
func (s *Service) LessonPlan(ctx context.Context, req LessonPlanRequest) (LessonPlanResult, error) {
	log := logger.FromContextOr(ctx, s.logger)

	hits, _, err := s.retrieve(ctx, req.Question, req.Filter, req.TopK)
	if err != nil {
		return LessonPlanResult{}, err
	}
	if req.OnHits != nil {
		req.OnHits(hits)
	}
	docs := domain.Documents(hits)

	full, ok := prompt.AssembleLessonPlan(req.Question, docs)
	if !ok {
		log.Warn("no relevant documents; answering not found", logger.Event("rag_generate"), zap.Bool("notFound", true))
		return LessonPlanResult{Text: prompt.NotFound, NotFound: true}, nil
	}

	out := LessonPlanResult{Hits: hits}
	text, err := s.generator.GenerateLessonPlan(ctx, full, req.Model)
	if err != nil {
		if s.policy.Action(GenerationFailure) == Propagate {
			return LessonPlanResult{}, err
		}
		text = full
		out.Degraded = true
	}
	out.Text = text
	s.countGeneration(out.Degraded)

	if out.Degraded {
		return out, nil
	}

	out.NotFound = strings.TrimSpace(text) == prompt.NotFound
	report, err := s.checkGrounding(ctx, text, docs)
	if err != nil {
		return LessonPlanResult{}, err
	}
	out.Codes = report.Produced
	out.Ungrounded = report.Ungrounded
	return out, nil
}

// retrieve picks the retrieval variant of the policy and applies its error actions.
// absorbed reports that a failure was degraded into the returned (possibly empty) context.
func (s *Service) retrieve(
	ctx context.Context, query string, filter domain.Filter, topK int,
) ([]domain.SimilarityResult, bool, error) {
	if !s.policy.Fallback {
		hits, err := s.retriever.RetrieveWithScores(ctx, query, filter, topK)
		if err != nil {
			return nil, true, s.absorbRetrieval(err)
		}
		return hits, false, nil
	}

	res := s.retriever.Retrieve(ctx, query, filter, topK)
	if err := s.absorbRetrieval(res.Err); err != nil {
		return nil, true, err
	}
	return res.Hits, res.Err != nil, nil
}

// absorbRetrieval returns err only when the policy propagates its kind.
func (s *Service) absorbRetrieval(err error) error {
	if err == nil {
		return nil
	}
	kind := RetrievalFailure
	if errors.Is(err, domain.ErrIndexUnavailable) {
		kind = IndexUnavailable
	}
	if s.policy.Action(kind) == Propagate {
		return err
	}
	return nil
}

func (s *Service) checkGrounding(ctx context.Context, text string, docs []domain.Document) (grounding.Report, error) {
	report := s.verifier.Check(ctx, text, docs)
	if !report.Grounded() && s.policy.Action(GroundingViolation) == Propagate {
		return report, fmt.Errorf("%w: %s", domain.ErrGroundingViolation, strings.Join(report.Ungrounded, ", "))
	}
	return report, nil
}

func (s *Service) countGeneration(degraded bool) {
	if degraded {
		metrics.GenerationTotal.WithLabelValues(metrics.StatusDegraded).Inc()
		return
	}
	metrics.GenerationTotal.WithLabelValues(metrics.StatusOK).Inc()
}
