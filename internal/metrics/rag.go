package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval outcomes.
const (
	OutcomeFiltered    = "filtered"
	OutcomeFallback    = "fallback"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
)

// Generation statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Pipeline metrics.
var (
	RetrievalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_total",
			Help:      "Retrievals by outcome",
		},
		[]string{"outcome"},
	)

	GenerationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_total",
			Help:      "Generations by status",
		},
		[]string{"status"},
	)

	GroundingViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grounding_violations_total",
			Help:      "Generated texts citing codes absent from the retrieved context",
		},
	)

	GenerationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cache_total",
			Help:      "Generation cache hits and misses",
		},
		[]string{"result"},
	)
)

var registerRAG sync.Once

// RegisterRAGMetrics registers pipeline collectors. Safe to call more than once.
func RegisterRAGMetrics() {
	registerRAG.Do(func() {
		prometheus.MustRegister(RetrievalTotal, GenerationTotal, GroundingViolationsTotal, GenerationCacheTotal)
	})
}
