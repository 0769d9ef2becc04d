package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage label values for stageDurationSeconds.
const (
	stageLoad     = "load"
	stageSplit    = "split"
	stageEmbed    = "embed"
	stageUpsert   = "upsert"
	stageAnswer   = "answer"
	stageFeedback = "feedback"
)

// Metrics holds the Prometheus metrics recorded by a Pipeline.
// Registering against an injected registry keeps tests hermetic and lets the
// HTTP server expose the same registry on /metrics.
type Metrics struct {
	// recordsLoadedTotal counts records produced by the loader.
	recordsLoadedTotal prometheus.Counter

	// chunksStoredTotal counts chunks upserted, partitioned by backend.
	chunksStoredTotal *prometheus.CounterVec

	// stageDurationSeconds records how long each pipeline stage took.
	stageDurationSeconds *prometheus.HistogramVec

	// answersTotal counts answered questions, partitioned by mode and outcome.
	answersTotal *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recordsLoadedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "pipeline",
			Name:      "records_loaded_total",
			Help:      "Total number of document records produced by the loader.",
		}),

		chunksStoredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "pipeline",
			Name:      "chunks_stored_total",
			Help:      "Total number of chunks written to the vector store, partitioned by backend.",
		}, []string{"backend"}),

		stageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docrag",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),

		answersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrag",
			Subsystem: "pipeline",
			Name:      "answers_total",
			Help:      "Total number of questions answered, partitioned by mode and outcome.",
		}, []string{"mode", "outcome"}),
	}
}

// observe records the duration of stage since start.
func (m *Metrics) observe(stage string, start time.Time) {
	m.stageDurationSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
