// Package observability provides the prometheus instrumentation for the
// assessment engine.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors the engine and transport report into.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsStopped   prometheus.Counter
	AnswersJudged     *prometheus.CounterVec
	EvaluatorErrors   prometheus.Counter
	EvaluatorLatency  prometheus.Histogram
	GraphNodes        prometheus.Gauge
}

// NewMetrics registers the engine's collectors with the given
// registerer. Pass prometheus.DefaultRegisterer in production and a
// fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_sessions_started_total",
			Help: "Number of assessment sessions started.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_sessions_completed_total",
			Help: "Number of sessions that ran out of eligible nodes.",
		}),
		SessionsStopped: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_sessions_stopped_total",
			Help: "Number of sessions finalized by an explicit stop.",
		}),
		AnswersJudged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_answers_judged_total",
			Help: "Number of judged answers, labeled by verdict.",
		}, []string{"verdict"}),
		EvaluatorErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "assessment_evaluator_errors_total",
			Help: "Number of answer evaluations that failed after retries.",
		}),
		EvaluatorLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_evaluator_latency_seconds",
			Help:    "Latency of oracle judge round trips, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		GraphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "assessment_graph_nodes",
			Help: "Current number of nodes in the knowledge graph.",
		}),
	}
}

// NewNopMetrics returns metrics bound to a throwaway registry.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveJudgment records one judged answer.
func (m *Metrics) ObserveJudgment(passed bool, elapsed time.Duration) {
	verdict := "failed"
	if passed {
		verdict = "passed"
	}
	m.AnswersJudged.WithLabelValues(verdict).Inc()
	m.EvaluatorLatency.Observe(elapsed.Seconds())
}
