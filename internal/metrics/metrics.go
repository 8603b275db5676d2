package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kb_assistant"

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns handled, by the route that served them",
		},
		[]string{"route"},
	)

	leaveIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leave_intents_total",
			Help:      "Leave turns by classified intent",
		},
		[]string{"intent"},
	)

	applyOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leave_apply_outcomes_total",
			Help:      "Terminal step reached by the leave application flow",
		},
		[]string{"outcome"},
	)

	storeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Storage failures by operation",
		},
		[]string{"op"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_completion_duration_seconds",
			Help:      "LLM completion latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"provider", "result"},
	)

	retrievalDocs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qa_retrieved_docs",
			Help:      "Documents returned by knowledge base retrieval",
			Buckets:   prometheus.LinearBuckets(0, 2, 7),
		},
	)

	ingestedChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_chunks_total",
			Help:      "Chunks written to the vector store",
		},
	)
)

func IncTurn(route string) {
	turnsTotal.WithLabelValues(route).Inc()
}

func IncLeaveIntent(intent string) {
	leaveIntentsTotal.WithLabelValues(intent).Inc()
}

func IncApplyOutcome(outcome string) {
	applyOutcomesTotal.WithLabelValues(outcome).Inc()
}

func IncStoreError(op string) {
	storeErrorsTotal.WithLabelValues(op).Inc()
}

// ObserveCompletion records one provider call; a non-nil err counts as "error"
func ObserveCompletion(provider string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	completionDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

func ObserveRetrieval(n int) {
	retrievalDocs.Observe(float64(n))
}

func AddIngestedChunks(n int) {
	ingestedChunks.Add(float64(n))
}
