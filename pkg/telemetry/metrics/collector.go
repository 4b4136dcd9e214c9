package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// OtherFeature replaces feature labels once the cardinality limit is reached.
const OtherFeature = "other"

// DefaultMaxFeatures bounds the number of distinct feature label values.
const DefaultMaxFeatures = 200

// Collector is the main entry point for all Prometheus metrics in Switchboard.
// It manages metric registration and gives the orchestrator one interface for
// recording selections, outcomes, alerts, budgets and sweeps.
//
// Feature names arrive from API callers, so they pass through a cardinality
// limiter; providers, reason codes and alert conditions are closed sets.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	routingMetrics  *RoutingMetrics
	outcomeMetrics  *OutcomeMetrics
	providerMetrics *ProviderMetrics
	alertMetrics    *AlertMetrics
	sweepMetrics    *SweepMetrics

	features *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "switchboard",
//		Subsystem: "orchestrator",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		features: NewCardinalityLimiter(DefaultMaxFeatures),
	}

	c.routingMetrics = NewRoutingMetrics(cfg, registry)
	c.outcomeMetrics = NewOutcomeMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.alertMetrics = NewAlertMetrics(cfg, registry)
	c.sweepMetrics = NewSweepMetrics(cfg, registry)

	return c
}

// feature returns the label value for a feature name.
func (c *Collector) feature(name string) string {
	if !c.features.Allow(name) {
		return OtherFeature
	}
	return name
}

// RecordSelection records a routing decision.
//
// Parameters:
//   - feature: requesting feature
//   - provider: selected provider
//   - code: reason code ("primary", "fallback", "last_resort")
//   - degraded: whether the choice is below the preferred free tier
func (c *Collector) RecordSelection(feature, provider, code string, degraded bool) {
	if !c.config.Enabled {
		return
	}

	c.routingMetrics.RecordSelection(c.feature(feature), provider, code, degraded)
}

// RecordSkip records a provider passed over during selection.
//
// Parameters:
//   - provider: skipped provider
//   - cause: "excluded" or "over_budget"
func (c *Collector) RecordSkip(provider, cause string) {
	if !c.config.Enabled {
		return
	}

	c.routingMetrics.RecordSkip(provider, cause)
}

// RecordOutcome records a reported request outcome.
//
// Latency and cost are optional; zero values are not observed.
func (c *Collector) RecordOutcome(provider, feature string, success bool, latency time.Duration, cost float64) {
	if !c.config.Enabled {
		return
	}

	feature = c.feature(feature)
	c.outcomeMetrics.RecordOutcome(provider, feature, success)
	if latency > 0 {
		c.outcomeMetrics.RecordLatency(provider, feature, latency)
	}
	if cost > 0 {
		c.outcomeMetrics.RecordCost(provider, feature, cost)
	}
}

// UpdateConsecutiveFailures sets the failure streak of a pair.
func (c *Collector) UpdateConsecutiveFailures(provider, feature string, count int64) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.UpdateConsecutiveFailures(provider, c.feature(feature), count)
}

// UpdatePairHealth sets the windowed success rate and average latency of a
// pair, as computed by a health sweep.
func (c *Collector) UpdatePairHealth(provider, feature string, successRate, avgLatencyMs float64) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.UpdatePairHealth(provider, c.feature(feature), successRate, avgLatencyMs)
}

// UpdateBudget sets the spend gauges of a provider.
//
// Parameters:
//   - provider: provider name
//   - spent: month-to-date spend in USD
//   - utilization: share of the monthly budget consumed, 0 for free providers
//   - available: whether the provider can currently be selected
func (c *Collector) UpdateBudget(provider string, spent, utilization float64, available bool) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.UpdateBudget(provider, spent, utilization, available)
}

// RecordAlert records an alert evaluation that triggered.
//
// Parameters:
//   - condition: alert condition (e.g. "error_rate", "budget_exhausted")
//   - severity: "warning" or "critical"
//   - outcome: "dispatched", "suppressed" or "delivery_failed"
func (c *Collector) RecordAlert(condition, severity, outcome string) {
	if !c.config.Enabled {
		return
	}

	c.alertMetrics.RecordAlert(condition, severity, outcome)
}

// RecordSweep records a completed health sweep.
func (c *Collector) RecordSweep(duration time.Duration, pairs int, err error) {
	if !c.config.Enabled {
		return
	}

	c.sweepMetrics.RecordSweep(duration, pairs, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether metrics are being recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a value is allowed. Returns true if the value was already
// admitted or the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[value]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
