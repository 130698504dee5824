package rag

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/repository/gencache"
	"github.com/kailas-cloud/bnccrag/internal/usecase/retrieval"
)

type mockRetriever struct {
	result      retrieval.Result
	scored      []domain.SimilarityResult
	scoredErr   error
	liveCalls   int
	scoredCalls int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, f domain.Filter, _ int) retrieval.Result {
	m.liveCalls++
	r := m.result
	r.Filter = f
	return r
}

func (m *mockRetriever) RetrieveWithScores(_ context.Context, _ string, _ domain.Filter, _ int) ([]domain.SimilarityResult, error) {
	m.scoredCalls++
	return m.scored, m.scoredErr
}

type mockGenerator struct {
	text       string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	return m.text, m.err
}

func (m *mockGenerator) GenerateLessonPlan(_ context.Context, prompt, _ string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	return m.text, m.err
}

func (m *mockGenerator) Model(override string) string {
	if override != "" {
		return override
	}
	return "gpt-4o-mini"
}

type memCache struct {
	data map[string]string
	puts int
}

func (c *memCache) Get(_ context.Context, k gencache.Key) (string, bool) {
	v, ok := c.data[k.String()]
	return v, ok
}

func (c *memCache) Put(_ context.Context, k gencache.Key, text string) {
	c.puts++
	c.data[k.String()] = text
}

type loaded bool

func (l loaded) Loaded() bool { return bool(l) }

func hits(codes ...string) []domain.SimilarityResult {
	out := make([]domain.SimilarityResult, len(codes))
	for i, c := range codes {
		out[i] = domain.SimilarityResult{
			Document: domain.Document{Content: "habilidade " + c, Metadata: domain.Metadata{Code: c}},
			Score:    1 - float64(i)/10,
		}
	}
	return out
}
