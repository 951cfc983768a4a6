package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the directory module.
// Tracks provider lifecycle counts, confidence evaluations, and the shape of
// the scores the engine hands back.
type Metrics struct {
	ProvidersCreated   prometheus.Counter
	Evaluations        prometheus.Counter
	EvaluationDuration prometheus.Histogram
	ScoreDistribution  prometheus.Histogram
}

// New creates a Metrics instance with all directory module metrics registered.
func New() *Metrics {
	return &Metrics{
		ProvidersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_providers_created_total",
			Help: "Total number of providers created",
		}),
		Evaluations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caredex_confidence_evaluations_total",
			Help: "Total number of confidence evaluations run",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caredex_confidence_evaluation_duration_seconds",
			Help:    "Duration of a single acceptance evaluation including store round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caredex_confidence_score",
			Help:    "Distribution of confidence scores produced by the engine",
			Buckets: []float64{10, 25, 50, 60, 75, 90, 100},
		}),
	}
}

// ObserveEvaluation records one evaluation's duration and resulting score.
func (m *Metrics) ObserveEvaluation(start time.Time, score int) {
	m.Evaluations.Inc()
	m.EvaluationDuration.Observe(time.Since(start).Seconds())
	m.ScoreDistribution.Observe(float64(score))
}

// IncrementProvidersCreated records a successful provider creation.
func (m *Metrics) IncrementProvidersCreated() {
	m.ProvidersCreated.Inc()
}
