package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// OutcomeMetrics tracks reported request outcomes.
//
// Metrics:
//   - switchboard_orchestrator_outcomes_total: outcomes by provider, feature and status
//   - switchboard_orchestrator_latency_seconds: reported latency distribution
//   - switchboard_orchestrator_cost_usd_total: reported spend
type OutcomeMetrics struct {
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	cost     *prometheus.CounterVec
}

// NewOutcomeMetrics creates and registers outcome metrics with the provided registry.
func NewOutcomeMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OutcomeMetrics {
	om := &OutcomeMetrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "outcomes_total",
				Help:      "Total number of reported request outcomes",
			},
			[]string{"provider", "feature", "status"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "latency_seconds",
				Help:      "Reported provider request latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider", "feature"},
		),

		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_usd_total",
				Help:      "Total reported provider spend in USD",
			},
			[]string{"provider", "feature"},
		),
	}

	registry.MustRegister(om.outcomes, om.latency, om.cost)

	return om
}

// RecordOutcome increments the outcome counter.
func (om *OutcomeMetrics) RecordOutcome(provider, feature string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	om.outcomes.WithLabelValues(provider, feature, status).Inc()
}

// RecordLatency observes a reported latency.
func (om *OutcomeMetrics) RecordLatency(provider, feature string, latency time.Duration) {
	om.latency.WithLabelValues(provider, feature).Observe(latency.Seconds())
}

// RecordCost adds reported spend.
func (om *OutcomeMetrics) RecordCost(provider, feature string, cost float64) {
	om.cost.WithLabelValues(provider, feature).Add(cost)
}
