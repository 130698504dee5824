package grounding

import (
	"context"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRAGMetrics()
	os.Exit(m.Run())
}

func docs(codes ...string) []domain.Document {
	out := make([]domain.Document, len(codes))
	for i, c := range codes {
		out[i] = domain.Document{Content: "x", Metadata: domain.Metadata{Code: c}}
	}
	return out
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		text string
		docs []domain.Document
		want []string
	}{
		{"echoed code is grounded", "Habilidade EF01LP01 trabalhada.", docs("EF01LP01"), nil},
		{"foreign code detected", "Usar EF01LP02 na aula.", docs("EF01LP01"), []string{"EF01LP02"}},
		{"no codes in text", "Plano sem códigos.", docs("EF01LP01"), nil},
		{"documents without code ignored", "EI03EF01", docs("", "EI03EF01"), nil},
		{"sorted and distinct", "EF05MA03 EF01LP09 EF05MA03", nil, []string{"EF01LP09", "EF05MA03"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Verify(tc.text, tc.docs)
			if len(r.Ungrounded) != len(tc.want) {
				t.Fatalf("ungrounded = %v, want %v", r.Ungrounded, tc.want)
			}
			for i := range tc.want {
				if r.Ungrounded[i] != tc.want[i] {
					t.Errorf("ungrounded[%d] = %s, want %s", i, r.Ungrounded[i], tc.want[i])
				}
			}
			if r.Grounded() != (len(tc.want) == 0) {
				t.Errorf("Grounded() = %v", r.Grounded())
			}
		})
	}
}

func TestVerifier_LogsViolation(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	v := NewVerifier(zap.New(core))

	before := testutil.ToFloat64(metrics.GroundingViolationsTotal)
	r := v.Check(context.Background(), "EF01LP02", docs("EF01LP01"))

	if r.Grounded() {
		t.Fatal("expected violation")
	}
	if logs.FilterField(zap.String("event", "rag_grounding_violation")).Len() != 1 {
		t.Error("expected rag_grounding_violation event")
	}
	if after := testutil.ToFloat64(metrics.GroundingViolationsTotal); after-before != 1 {
		t.Errorf("expected violation counter +1, got %f", after-before)
	}
}

func TestVerifier_LogsOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	v := NewVerifier(zap.New(core))

	v.Check(context.Background(), "EF01LP01", docs("EF01LP01"))
	if logs.FilterField(zap.String("event", "rag_grounding_ok")).Len() != 1 {
		t.Error("expected rag_grounding_ok event")
	}
}
