// Package grounding checks that a generated plan cites only skill codes present in its context.
package grounding

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/domain/bncc"
	"github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

// Report lists codes found in text, codes available in context and the difference.
// Ungrounded is sorted; empty means the text is grounded.
type Report struct {
	Produced   []string
	Available  []string
	Ungrounded []string
}

// Grounded reports whether every produced code was available.
func (r Report) Grounded() bool { return len(r.Ungrounded) == 0 }

// Verify computes produced − available. Documents without a code contribute nothing.
func Verify(text string, docs []domain.Document) Report {
	produced := bncc.Extract(text)

	seen := make(map[string]struct{}, len(docs))
	var available []string
	for _, d := range docs {
		c := d.Metadata.Code
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		available = append(available, c)
	}

	var ungrounded []string
	for _, c := range produced {
		if _, ok := seen[c]; !ok {
			ungrounded = append(ungrounded, c)
		}
	}
	sort.Strings(ungrounded)

	return Report{Produced: produced, Available: available, Ungrounded: ungrounded}
}

// Verifier runs Verify and reports violations through logs and metrics. It never fails.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Check verifies text against docs.
func (v *Verifier) Check(ctx context.Context, text string, docs []domain.Document) Report {
	r := Verify(text, docs)
	log := logger.FromContextOr(ctx, v.logger)
	if !r.Grounded() {
		metrics.GroundingViolationsTotal.Inc()
		log.Warn("generated codes absent from context",
			logger.Event("rag_grounding_violation"),
			zap.Strings("ungrounded", r.Ungrounded),
			zap.Strings("available", r.Available),
		)
		return r
	}
	log.Info("all generated codes belong to context",
		logger.Event("rag_grounding_ok"),
		zap.Int("codes", len(r.Produced)),
	)
	return r
}
