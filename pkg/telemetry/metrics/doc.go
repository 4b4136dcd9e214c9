// Package metrics provides Prometheus metrics collection for Switchboard.
//
// # Metrics Categories
//
//   - Routing Metrics: selections by reason code and degradation, skipped providers
//   - Outcome Metrics: reported outcomes, latency and spend
//   - Provider Metrics: windowed pair health, failure streaks and budget gauges
//   - Alert Metrics: triggered alerts by condition, severity and delivery outcome
//   - Sweep Metrics: health sweep count, duration and coverage
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordSelection("chat", "groq", "primary", false)
//	collector.RecordOutcome("groq", "chat", true, 850*time.Millisecond, 0)
//	collector.RecordAlert("error_rate", "critical", "dispatched")
//
//	mux.Handle("/metrics", collector.Handler())
//
// All metrics live on the collector's own registry rather than the global
// default one, so several collectors can coexist in tests.
//
// # Cardinality Management
//
// Feature names come from API callers. The first DefaultMaxFeatures distinct
// names are kept as label values; later ones are recorded as "other".
//
// # Disabled Collection
//
// When MetricsConfig.Enabled is false every Record and Update call is a
// no-op, and the registry stays empty apart from the metric descriptors.
package metrics
