package sentiment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds classifier instrumentation.
type Metrics struct {
	duration  *prometheus.HistogramVec
	composite prometheus.Histogram
	errors    prometheus.Counter
}

// NewMetrics creates classifier metrics registered on reg. A nil reg
// leaves the collectors unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feelwrite",
			Subsystem: "sentiment",
			Name:      "classify_duration_seconds",
			Help:      "Duration of a single classification, labeled by outcome (ok, error).",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"outcome"}),
		composite: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "feelwrite",
			Subsystem: "sentiment",
			Name:      "composite_score",
			Help:      "Distribution of computed composite mood scores on the 1..5 scale.",
			Buckets:   []float64{1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0},
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "feelwrite",
			Subsystem: "sentiment",
			Name:      "classify_errors_total",
			Help:      "Total classification failures, including tokenization and forward-pass errors.",
		}),
	}
}

// RecordClassification records one classification attempt.
func (m *Metrics) RecordClassification(duration time.Duration, score Score, err error) {
	if err != nil {
		m.duration.WithLabelValues("error").Observe(duration.Seconds())
		m.errors.Inc()
		return
	}
	m.duration.WithLabelValues("ok").Observe(duration.Seconds())
	m.composite.Observe(score.Composite)
}
