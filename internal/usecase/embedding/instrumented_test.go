package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, PromptTokens: 5, TotalTokens: 5}}
	p := NewInstrumentedEmbedder(inner, "text-embedding-3-large", zap.New(core))

	result, err := p.Embed(context.Background(), "rimas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}

	entries := logs.FilterMessage("embedding request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion log, got %d", len(entries))
	}
	if entries[0].ContextMap()["dimensions"] != int64(3) {
		t.Errorf("expected dimensions=3, got %v", entries[0].ContextMap()["dimensions"])
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "m", zap.New(core))

	_, err := p.Embed(context.Background(), "rimas")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if logs.FilterMessage("embedding request failed").Len() != 1 {
		t.Error("expected failure to be logged")
	}
}

func TestInstrumentedEmbedder_HealthCheckWithoutSupport(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "m", zap.NewNop())
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
