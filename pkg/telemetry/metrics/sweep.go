package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/switchboard/pkg/config"
)

// SweepMetrics tracks scheduled health sweeps.
//
// Metrics:
//   - switchboard_orchestrator_sweeps_total: completed sweeps by status
//   - switchboard_orchestrator_sweep_duration_seconds: sweep duration distribution
//   - switchboard_orchestrator_sweep_pairs: provider and feature pairs checked by the last sweep
//   - switchboard_orchestrator_last_sweep_timestamp_seconds: completion time of the last sweep
type SweepMetrics struct {
	sweeps    *prometheus.CounterVec
	duration  prometheus.Histogram
	pairs     prometheus.Gauge
	lastSweep prometheus.Gauge
}

// NewSweepMetrics creates and registers sweep metrics with the provided registry.
func NewSweepMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SweepMetrics {
	sm := &SweepMetrics{
		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweeps_total",
				Help:      "Total number of health sweeps",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Health sweep duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),

		pairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_pairs",
				Help:      "Provider and feature pairs checked by the last sweep",
			},
		),

		lastSweep: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_sweep_timestamp_seconds",
				Help:      "Unix time the last health sweep completed",
			},
		),
	}

	registry.MustRegister(sm.sweeps, sm.duration, sm.pairs, sm.lastSweep)

	return sm
}

// RecordSweep records a completed sweep.
func (sm *SweepMetrics) RecordSweep(duration time.Duration, pairs int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	sm.sweeps.WithLabelValues(status).Inc()
	sm.duration.Observe(duration.Seconds())
	sm.pairs.Set(float64(pairs))
	sm.lastSweep.SetToCurrentTime()
}
