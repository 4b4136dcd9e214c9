package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// ProviderMetrics tracks provider health and budget state.
//
// Metrics:
//   - switchboard_orchestrator_pair_success_rate: windowed success rate per provider and feature
//   - switchboard_orchestrator_pair_latency_ms: windowed average latency per provider and feature
//   - switchboard_orchestrator_consecutive_failures: current failure streak per provider and feature
//   - switchboard_orchestrator_budget_spent_usd: month-to-date spend per provider
//   - switchboard_orchestrator_budget_utilization_ratio: share of monthly budget consumed
//   - switchboard_orchestrator_provider_available: 1 while the provider can be selected
type ProviderMetrics struct {
	successRate *prometheus.GaugeVec
	latencyMs   *prometheus.GaugeVec
	failures    *prometheus.GaugeVec

	spent       *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	available   *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      name,
				Help:      help,
			},
			labels,
		)
	}

	pm := &ProviderMetrics{
		successRate: gauge("pair_success_rate", "Windowed success rate per provider and feature", "provider", "feature"),
		latencyMs:   gauge("pair_latency_ms", "Windowed average latency in milliseconds per provider and feature", "provider", "feature"),
		failures:    gauge("consecutive_failures", "Current consecutive failure count per provider and feature", "provider", "feature"),
		spent:       gauge("budget_spent_usd", "Month-to-date spend in USD", "provider"),
		utilization: gauge("budget_utilization_ratio", "Share of the monthly budget consumed (0 for free providers)", "provider"),
		available:   gauge("provider_available", "Provider availability (1=selectable, 0=over budget)", "provider"),
	}

	registry.MustRegister(
		pm.successRate,
		pm.latencyMs,
		pm.failures,
		pm.spent,
		pm.utilization,
		pm.available,
	)

	return pm
}

// UpdatePairHealth sets the windowed health gauges of a pair.
func (pm *ProviderMetrics) UpdatePairHealth(provider, feature string, successRate, avgLatencyMs float64) {
	pm.successRate.WithLabelValues(provider, feature).Set(successRate)
	pm.latencyMs.WithLabelValues(provider, feature).Set(avgLatencyMs)
}

// UpdateConsecutiveFailures sets the failure streak gauge.
func (pm *ProviderMetrics) UpdateConsecutiveFailures(provider, feature string, count int64) {
	pm.failures.WithLabelValues(provider, feature).Set(float64(count))
}

// UpdateBudget sets the budget gauges of a provider.
func (pm *ProviderMetrics) UpdateBudget(provider string, spent, utilization float64, available bool) {
	value := 0.0
	if available {
		value = 1.0
	}
	pm.spent.WithLabelValues(provider).Set(spent)
	pm.utilization.WithLabelValues(provider).Set(utilization)
	pm.available.WithLabelValues(provider).Set(value)
}
