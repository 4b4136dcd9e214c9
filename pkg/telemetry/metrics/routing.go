package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// RoutingMetrics tracks provider selection.
//
// Metrics:
//   - switchboard_orchestrator_selections_total: decisions by feature, provider, reason code and degradation
//   - switchboard_orchestrator_skips_total: providers passed over during selection by cause
type RoutingMetrics struct {
	selections *prometheus.CounterVec
	skips      *prometheus.CounterVec
}

// NewRoutingMetrics creates and registers routing metrics with the provided registry.
func NewRoutingMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RoutingMetrics {
	rm := &RoutingMetrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "selections_total",
				Help:      "Total number of provider selections",
			},
			[]string{"feature", "provider", "code", "degraded"},
		),

		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "skips_total",
				Help:      "Total number of providers skipped during selection",
			},
			[]string{"provider", "cause"},
		),
	}

	registry.MustRegister(rm.selections, rm.skips)

	return rm
}

// RecordSelection increments the selection counter.
func (rm *RoutingMetrics) RecordSelection(feature, provider, code string, degraded bool) {
	rm.selections.WithLabelValues(feature, provider, code, strconv.FormatBool(degraded)).Inc()
}

// RecordSkip increments the skip counter.
func (rm *RoutingMetrics) RecordSkip(provider, cause string) {
	rm.skips.WithLabelValues(provider, cause).Inc()
}
