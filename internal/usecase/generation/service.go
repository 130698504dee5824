// Package generation sends assembled prompts to the chat model.
package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/logger"
)

// DefaultModel is used when neither the caller nor configuration picks one.
const DefaultModel = "gpt-4o-mini"

// System roles for the two prompt variants.
const (
	LiveSystemRole   = "Gerador de planos alinhados à BNCC."
	StrictSystemRole = "Você é um gerador de planos de aula rigoroso que segue a BNCC."
)

// Service propagates every completion failure; degradation is the caller's policy.
type Service struct {
	chat         domain.ChatCompleter
	defaultModel string
	logger       *zap.Logger
}

// New creates a generator. defaultModel "" selects DefaultModel.
func New(chat domain.ChatCompleter, defaultModel string, logger *zap.Logger) *Service {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Service{chat: chat, defaultModel: defaultModel, logger: logger}
}

// Model resolves an explicit override against the configured default.
func (s *Service) Model(override string) string {
	if override != "" {
		return override
	}
	return s.defaultModel
}

// Generate completes a live-path prompt.
func (s *Service) Generate(ctx context.Context, prompt, model string) (string, error) {
	return s.complete(ctx, LiveSystemRole, prompt, s.Model(model))
}

// GenerateLessonPlan completes a strict lesson-plan prompt.
func (s *Service) GenerateLessonPlan(ctx context.Context, prompt, model string) (string, error) {
	return s.complete(ctx, StrictSystemRole, prompt, s.Model(model))
}

func (s *Service) complete(ctx context.Context, system, prompt, model string) (string, error) {
	log := logger.FromContextOr(ctx, s.logger)

	start := time.Now()
	out, err := s.chat.Complete(ctx, model, []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		log.Error("completion failed",
			logger.Event("rag_llm_failed"),
			zap.String("model", model),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	log.Info("completion ok",
		logger.Event("rag_llm_ok"),
		zap.String("model", model),
		zap.Int("response_len", len([]rune(out.Text))),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return out.Text, nil
}
