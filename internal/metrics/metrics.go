// Package metrics wires the extraction engine's Prometheus surface,
// grounded on cmd/gpu-cluster-executor/main.go's ClusterMetrics
// (struct of pre-registered Histogram/Counter/Gauge vectors,
// constructed once and registered with prometheus.MustRegister).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	WaveDuration        *prometheus.HistogramVec
	EntitiesExtracted   *prometheus.CounterVec
	RelationshipsKept   prometheus.Counter
	RejectionsTotal     *prometheus.CounterVec
	ChunkFailuresTotal  prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec
	GPUMemoryPercent    *prometheus.GaugeVec
	ExtractionsTotal    *prometheus.CounterVec
}

// New builds and registers the engine's metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the
// global default registry used by cmd/extraction-server.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "extraction_wave_duration_seconds",
				Help:    "Time taken for one wave or chunk LLM call to complete",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"wave", "strategy"},
		),
		EntitiesExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_entities_extracted_total",
				Help: "Total entities accepted by the response validator, by entity_type",
			},
			[]string{"entity_type"},
		),
		RelationshipsKept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extraction_relationships_kept_total",
				Help: "Total relationships surviving validation and dedup",
			},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_rejections_total",
				Help: "Total entity/relationship candidates rejected, by reason",
			},
			[]string{"kind", "reason"},
		),
		ChunkFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "extraction_chunk_failures_total",
				Help: "Total chunks that failed extraction in THREE_WAVE_CHUNKED mode",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "extraction_circuit_breaker_state",
				Help: "Circuit breaker state per service (0=closed, 1=half_open, 2=open)",
			},
			[]string{"service"},
		),
		GPUMemoryPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "extraction_gpu_memory_utilization_percent",
				Help: "Last-sampled GPU memory utilization percentage",
			},
			[]string{"gpu_id"},
		),
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_documents_total",
				Help: "Total documents processed, by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
	}

	reg.MustRegister(
		m.WaveDuration, m.EntitiesExtracted, m.RelationshipsKept, m.RejectionsTotal,
		m.ChunkFailuresTotal, m.CircuitBreakerState, m.GPUMemoryPercent, m.ExtractionsTotal,
	)
	return m
}

// BreakerStateValue maps a breaker state name to the gauge encoding
// used by CircuitBreakerState.
func BreakerStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half_open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
