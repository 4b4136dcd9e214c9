package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// AlertMetrics tracks triggered alerts.
//
// Metrics:
//   - switchboard_orchestrator_alerts_total: triggered alerts by condition, severity and outcome
type AlertMetrics struct {
	alerts *prometheus.CounterVec
}

// NewAlertMetrics creates and registers alert metrics with the provided registry.
func NewAlertMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AlertMetrics {
	am := &AlertMetrics{
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "alerts_total",
				Help:      "Total number of triggered alerts by delivery outcome",
			},
			[]string{"condition", "severity", "outcome"},
		),
	}

	registry.MustRegister(am.alerts)

	return am
}

// RecordAlert increments the alert counter.
func (am *AlertMetrics) RecordAlert(condition, severity, outcome string) {
	am.alerts.WithLabelValues(condition, severity, outcome).Inc()
}
