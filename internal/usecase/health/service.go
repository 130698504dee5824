// Package health reports index availability with a one-item sample retrieval.
package health

import (
	"context"

	"github.com/kailas-cloud/bnccrag/internal/domain"
)

// SampleQuery is the probe sent to the index.
const SampleQuery = "BNCC"

// Sample counts.
const (
	SampleNoIndex = 0
	SampleFailed  = -1
)

// CheckResult is an individual component outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
)

// Report is the health answer. Checks lists optional components (database, embedding).
type Report struct {
	DBLoaded            bool
	SampleRetrieveCount int
	Checks              map[string]CheckResult
}

// Service runs the probes. db and embedding may be nil.
type Service struct {
	index     Index
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service.
func New(index Index, db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{index: index, db: db, embedding: embedding}
}

// Check reports -1 when the sample query fails, 0 without an index, else the number of sample hits.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{SampleRetrieveCount: SampleNoIndex}

	if s.index != nil && s.index.Loaded() {
		r.DBLoaded = true
		hits, err := s.index.Search(ctx, SampleQuery, 1, domain.Filter{})
		if err != nil {
			r.SampleRetrieveCount = SampleFailed
		} else {
			r.SampleRetrieveCount = len(hits)
		}
	}

	if s.db != nil {
		r.Checks = map[string]CheckResult{"database": result(s.db.Ping(ctx))}
	}
	if s.embedding != nil {
		if r.Checks == nil {
			r.Checks = map[string]CheckResult{}
		}
		r.Checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
