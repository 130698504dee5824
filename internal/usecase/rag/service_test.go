package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/usecase/grounding"
	"github.com/kailas-cloud/bnccrag/internal/usecase/prompt"
	"github.com/kailas-cloud/bnccrag/internal/usecase/retrieval"
)

func newService(r Retriever, g Generator, p Policy, opts ...Option) *Service {
	return New(r, g, grounding.NewVerifier(zap.NewNop()), p, zap.NewNop(), opts...)
}

var request = domain.GenerationRequest{
	Prompt:            "Quero uma aula sobre rimas",
	IncludeAssessment: true,
	Year:              "1º ano",
	Component:         "Língua Portuguesa",
}

func TestPolicyTables(t *testing.T) {
	kinds := []ErrorKind{IndexUnavailable, RetrievalFailure, GenerationFailure, GroundingViolation}
	for _, k := range kinds {
		if Live.Action(k) != Degrade {
			t.Errorf("live %s: expected degrade", k)
		}
	}
	for _, k := range kinds[:3] {
		if Offline.Action(k) != Propagate {
			t.Errorf("offline %s: expected propagate", k)
		}
	}
	if Offline.Action(GroundingViolation) != Degrade {
		t.Error("grounding violations must never fail a request")
	}
	if !Live.Fallback || Offline.Fallback {
		t.Error("live uses fallback retrieval, offline the scored variant")
	}
}

func TestGenerate_Success(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	g := &mockGenerator{text: "Plano com EF01LP01"}
	svc := newService(r, g, Live, WithAvailability(loaded(true)))

	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Plano com EF01LP01" || out.Degraded {
		t.Errorf("unexpected result: %+v", out)
	}
	if !out.UsedFilters.IncludeAssessment || out.UsedFilters.IncludeSlides {
		t.Errorf("unexpected used filters: %+v", out.UsedFilters)
	}
	if !strings.Contains(g.lastPrompt, "habilidade EF01LP01") || !strings.Contains(g.lastPrompt, request.Prompt) {
		t.Errorf("assembled prompt missing context or request: %q", g.lastPrompt)
	}
	if !strings.Contains(g.lastPrompt, prompt.AssessmentInstruction) {
		t.Error("assembled prompt missing assessment instruction")
	}
}

func TestGenerate_LiveEchoesPromptOnGenerationFailure(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	g := &mockGenerator{err: domain.ErrGenerationFailed}
	svc := newService(r, g, Live)

	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("live path must not fail: %v", err)
	}
	if !out.Degraded {
		t.Error("expected degraded result")
	}
	if out.Text != g.lastPrompt {
		t.Error("expected assembled prompt to be echoed")
	}
}

func TestGenerate_OfflinePropagatesGenerationFailure(t *testing.T) {
	r := &mockRetriever{scored: hits("EF01LP01")}
	g := &mockGenerator{err: domain.ErrGenerationFailed}
	svc := newService(r, g, Offline)

	if _, err := svc.Generate(context.Background(), request); !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
	if r.scoredCalls != 1 || r.liveCalls != 0 {
		t.Errorf("offline must use scored retrieval, got live=%d scored=%d", r.liveCalls, r.scoredCalls)
	}
}

func TestGenerate_LiveDegradesUnavailableIndex(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Err: domain.ErrIndexUnavailable}}
	g := &mockGenerator{text: "Plano genérico"}
	svc := newService(r, g, Live, WithAvailability(loaded(false)))

	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Plano genérico" {
		t.Errorf("unexpected text: %q", out.Text)
	}
	if strings.Contains(g.lastPrompt, prompt.ContextLabel) {
		t.Error("empty context must not produce a Context section")
	}
}

func TestGenerate_OfflinePropagatesUnavailableIndex(t *testing.T) {
	r := &mockRetriever{scoredErr: domain.ErrIndexUnavailable}
	g := &mockGenerator{text: "x"}
	svc := newService(r, g, Offline)

	if _, err := svc.Generate(context.Background(), request); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
	if g.calls != 0 {
		t.Error("generator must not be called after a propagated retrieval failure")
	}
}

func TestGenerate_OfflinePropagatesRetrievalFailure(t *testing.T) {
	r := &mockRetriever{scoredErr: domain.ErrRetrievalFailed}
	svc := newService(r, &mockGenerator{}, Offline)

	if _, err := svc.Generate(context.Background(), request); !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Errorf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestGenerate_GroundingViolationDoesNotBlock(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	g := &mockGenerator{text: "Plano com EF01LP02"}
	svc := newService(r, g, Live)

	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("violation must not fail the request: %v", err)
	}
	if out.Text != "Plano com EF01LP02" {
		t.Errorf("expected generated text, got %q", out.Text)
	}
}

func TestGenerate_PropagatingGroundingPolicy(t *testing.T) {
	strict := Policy{Name: "strict", Fallback: true, Actions: map[ErrorKind]Action{GroundingViolation: Propagate}}
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	svc := newService(r, &mockGenerator{text: "EF01LP02"}, strict)

	if _, err := svc.Generate(context.Background(), request); !errors.Is(err, domain.ErrGroundingViolation) {
		t.Errorf("expected ErrGroundingViolation, got %v", err)
	}
}

func TestGenerate_CachesOnlySuccess(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}

	failing := newService(r, &mockGenerator{err: domain.ErrGenerationFailed}, Live, WithCache(cache))
	if _, err := failing.Generate(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.puts != 0 {
		t.Fatal("degraded generations must not be cached")
	}

	g := &mockGenerator{text: "Plano"}
	svc := newService(r, g, Live, WithCache(cache))
	if _, err := svc.Generate(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Plano" || g.calls != 1 || cache.puts != 1 {
		t.Errorf("expected cached answer on second call: text=%q calls=%d puts=%d", out.Text, g.calls, cache.puts)
	}
}

func TestGenerate_SkipsCacheWhenRetrievalDegraded(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	r := &mockRetriever{result: retrieval.Result{Err: domain.ErrRetrievalFailed}}
	g := &mockGenerator{text: "plano sem contexto"}
	svc := newService(r, g, Live, WithCache(cache))

	if _, err := svc.Generate(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.puts != 0 {
		t.Fatal("answers over an absorbed retrieval failure must not be cached")
	}

	r.result = retrieval.Result{Hits: hits("EF01LP01")}
	g.text = "Plano EF01LP01"
	out, err := svc.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Plano EF01LP01" || g.calls != 2 || r.liveCalls != 2 {
		t.Errorf("expected fresh retrieval and generation: text=%q calls=%d retrieves=%d", out.Text, g.calls, r.liveCalls)
	}
	if cache.puts != 1 {
		t.Errorf("expected the grounded answer to be cached, puts=%d", cache.puts)
	}
}

func TestGenerate_SkipsCacheOnEmptyContext(t *testing.T) {
	cache := &memCache{data: map[string]string{}}
	svc := newService(&mockRetriever{}, &mockGenerator{text: "plano"}, Live, WithCache(cache))

	if _, err := svc.Generate(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.puts != 0 {
		t.Errorf("contextless answers must not be cached, puts=%d", cache.puts)
	}
}

func TestLessonPlan_ShortCircuitsOnEmptyContext(t *testing.T) {
	g := &mockGenerator{text: "x"}
	svc := newService(&mockRetriever{}, g, Offline)

	out, err := svc.LessonPlan(context.Background(), LessonPlanRequest{Question: "rimas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != prompt.NotFound || !out.NotFound {
		t.Errorf("expected not-found sentinel, got %+v", out)
	}
	if g.calls != 0 {
		t.Error("generator must not be called for empty context")
	}
}

func TestLessonPlan_ReportsCodesAndViolations(t *testing.T) {
	r := &mockRetriever{scored: hits("EF01LP01", "EF01LP02")}
	g := &mockGenerator{text: "Códigos: EF01LP01, EF15LP99"}
	svc := newService(r, g, Offline)

	out, err := svc.LessonPlan(context.Background(), LessonPlanRequest{Question: "rimas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Codes) != 2 || out.Codes[0] != "EF01LP01" {
		t.Errorf("unexpected codes: %v", out.Codes)
	}
	if len(out.Ungrounded) != 1 || out.Ungrounded[0] != "EF15LP99" {
		t.Errorf("unexpected ungrounded: %v", out.Ungrounded)
	}
	if len(out.Hits) != 2 {
		t.Errorf("expected hits to be returned, got %d", len(out.Hits))
	}
	if !strings.Contains(g.lastPrompt, "CÓDIGO: EF01LP02") {
		t.Error("strict prompt must cite codes")
	}
}

func TestLessonPlan_ModelAnswersNotFound(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	svc := newService(r, &mockGenerator{text: " " + prompt.NotFound + "\n"}, Live)

	out, err := svc.LessonPlan(context.Background(), LessonPlanRequest{Question: "física quântica"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NotFound {
		t.Error("expected NotFound when the model returns the sentinel")
	}
}

func TestLessonPlan_LiveEchoOnFailure(t *testing.T) {
	r := &mockRetriever{result: retrieval.Result{Hits: hits("EF01LP01")}}
	g := &mockGenerator{err: domain.ErrGenerationFailed}
	svc := newService(r, g, Live)

	out, err := svc.LessonPlan(context.Background(), LessonPlanRequest{Question: "rimas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Degraded || out.Text != g.lastPrompt {
		t.Errorf("expected echoed strict prompt, got %+v", out)
	}
}

func TestLessonPlan_OfflinePropagatesFailure(t *testing.T) {
	r := &mockRetriever{scored: hits("EF01LP01")}
	svc := newService(r, &mockGenerator{err: domain.ErrGenerationFailed}, Offline)

	if _, err := svc.LessonPlan(context.Background(), LessonPlanRequest{Question: "rimas"}); !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestLessonPlan_HitsSeenBeforeGenerationFailure(t *testing.T) {
	r := &mockRetriever{scored: hits("EF01LP01", "EF01LP02")}
	g := &mockGenerator{err: domain.ErrGenerationFailed}
	svc := newService(r, g, Offline)

	var seen []domain.SimilarityResult
	req := LessonPlanRequest{
		Question: "rimas",
		OnHits:   func(h []domain.SimilarityResult) { seen = h },
	}
	if _, err := svc.LessonPlan(context.Background(), req); !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if len(seen) != 2 || seen[0].Document.Metadata.Code != "EF01LP01" {
		t.Errorf("expected retrieved hits before failure, got %+v", seen)
	}
}
