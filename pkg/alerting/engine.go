package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/notify"
	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

// MetricsSource computes metrics for a provider and feature.
type MetricsSource interface {
	MetricsFor(ctx context.Context, id provider.ID, feature string, window time.Duration) aggregate.Metrics
}

// FailureCounter reports consecutive failures for a provider and feature.
type FailureCounter interface {
	Count(ctx context.Context, id provider.ID, feature string) int64
}

// BudgetSource evaluates provider budgets.
type BudgetSource interface {
	Evaluate(ctx context.Context, cfg provider.Config) budget.Status
}

// Config wires an Engine.
type Config struct {
	Metrics  MetricsSource
	Failures FailureCounter
	Budget   BudgetSource
	Sink     notify.Sink
	Cooldown *Cooldown

	// Thresholds defaults to DefaultThresholds().
	Thresholds *Thresholds

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine evaluates alert conditions and dispatches notifications.
// It is safe for concurrent use.
type Engine struct {
	metrics    MetricsSource
	failures   FailureCounter
	budget     BudgetSource
	sink       notify.Sink
	cooldown   *Cooldown
	thresholds atomic.Pointer[Thresholds]
	logger     *slog.Logger
	nowFunc    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{
		metrics:  cfg.Metrics,
		failures: cfg.Failures,
		budget:   cfg.Budget,
		sink:     cfg.Sink,
		cooldown: cfg.Cooldown,
		logger:   cfg.Logger.With("component", "alerting"),
		nowFunc:  time.Now,
	}

	t := DefaultThresholds()
	if cfg.Thresholds != nil {
		t = *cfg.Thresholds
	}
	e.thresholds.Store(&t)

	return e
}

// Thresholds returns the thresholds currently in effect.
func (e *Engine) Thresholds() Thresholds {
	return *e.thresholds.Load()
}

// SetThresholds replaces the thresholds. Evaluations already running keep
// the thresholds they started with.
func (e *Engine) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	e.thresholds.Store(&t)
	e.logger.Info("alert thresholds updated",
		"error_rate", t.ErrorRate,
		"latency_ms", t.LatencyMs,
		"cost_usd", t.CostUSD,
		"consecutive_failures", t.ConsecutiveFailures,
		"cooldown", t.Cooldown,
		"window", t.Window,
	)
	return nil
}

// check is one condition evaluated against a snapshot.
type check struct {
	condition Condition
	severity  notify.Severity
	triggered bool
	value     float64
	threshold float64
	title     string
	body      string
}

// CheckAndAlert evaluates the pair conditions for one provider and feature
// against a single metrics snapshot and dispatches what is due.
func (e *Engine) CheckAndAlert(ctx context.Context, id provider.ID, feature string) Report {
	t := e.Thresholds()
	m := e.metrics.MetricsFor(ctx, id, feature, t.Window)
	failures := e.failures.Count(ctx, id, feature)

	pair := fmt.Sprintf("%s/%s", id, feature)
	window := windowLabel(t.Window)

	checks := []check{
		{
			condition: ConditionErrorRate,
			severity:  notify.SeverityCritical,
			triggered: m.TotalRequests >= t.MinSamples && m.SuccessRate < 1-t.ErrorRate,
			value:     m.ErrorRate(),
			threshold: t.ErrorRate,
			title:     "High error rate for " + pair,
			body: fmt.Sprintf("error rate %.1f%% over %d requests in the last %s exceeds %.1f%%; last error: %s",
				m.ErrorRate()*100, m.TotalRequests, window, t.ErrorRate*100, orNone(m.LastError)),
		},
		{
			condition: ConditionLatency,
			severity:  notify.SeverityWarning,
			triggered: m.TotalRequests > 0 && m.AvgLatencyMs > t.LatencyMs,
			value:     m.AvgLatencyMs,
			threshold: t.LatencyMs,
			title:     "High latency for " + pair,
			body: fmt.Sprintf("average latency %.0fms over %d requests in the last %s exceeds %.0fms",
				m.AvgLatencyMs, m.TotalRequests, window, t.LatencyMs),
		},
		{
			condition: ConditionCost,
			severity:  notify.SeverityWarning,
			triggered: m.TotalCost > t.CostUSD,
			value:     m.TotalCost,
			threshold: t.CostUSD,
			title:     "High cost for " + pair,
			body: fmt.Sprintf("window cost $%.2f in the last %s exceeds $%.2f",
				m.TotalCost, window, t.CostUSD),
		},
		{
			condition: ConditionConsecutiveFailures,
			severity:  notify.SeverityCritical,
			triggered: failures >= t.ConsecutiveFailures,
			value:     float64(failures),
			threshold: float64(t.ConsecutiveFailures),
			title:     "Consecutive failures for " + pair,
			body: fmt.Sprintf("%d consecutive failures (threshold %d); last error: %s",
				failures, t.ConsecutiveFailures, orNone(m.LastError)),
		},
	}

	report := Report{
		Provider: string(id),
		Feature:  feature,
		Metrics:  &m,
		Failures: failures,
		Results:  make([]Result, 0, len(checks)),
	}
	for _, c := range checks {
		report.Results = append(report.Results, e.apply(ctx, c, string(id), feature, t.Cooldown))
	}
	return report
}

// CheckBudget evaluates the budget condition of a paid provider. Reaching
// the alert threshold reports ConditionBudget; an exhausted budget reports
// ConditionBudgetExhausted. Free providers never trigger.
func (e *Engine) CheckBudget(ctx context.Context, cfg provider.Config) Report {
	t := e.Thresholds()
	status := e.budget.Evaluate(ctx, cfg)

	c := check{
		condition: ConditionBudget,
		value:     status.Percentage,
		threshold: cfg.AlertThreshold,
	}
	switch {
	case status.Free:
	case !status.Available:
		// Separate key so a recent threshold warning cannot hold back the
		// exhaustion alert.
		c.condition = ConditionBudgetExhausted
		c.triggered = true
		c.severity = notify.SeverityCritical
		c.threshold = 1
		c.title = fmt.Sprintf("Budget exhausted for %s", cfg.ID)
		c.body = fmt.Sprintf("spent %s; requests now fall back to other providers until %s",
			status.SpendSummary(), status.Reset.Format("2006-01-02"))
	case status.AlertTriggered:
		c.triggered = true
		c.severity = notify.SeverityWarning
		c.title = fmt.Sprintf("Budget threshold reached for %s", cfg.ID)
		c.body = fmt.Sprintf("spent %s, %.0f%% of the monthly budget (alert at %.0f%%)",
			status.SpendSummary(), status.Percentage*100, cfg.AlertThreshold*100)
	}

	return Report{
		Provider: string(cfg.ID),
		Feature:  aggregate.All,
		Status:   &status,
		Results:  []Result{e.apply(ctx, c, string(cfg.ID), aggregate.All, t.Cooldown)},
	}
}

// apply runs the cooldown and dispatch steps for one condition.
func (e *Engine) apply(ctx context.Context, c check, providerName, feature string, cooldown time.Duration) Result {
	key := Key(c.condition, providerName, feature)
	res := Result{
		Condition: c.condition,
		Key:       key,
		Outcome:   OutcomeNotTriggered,
		Value:     c.value,
		Threshold: c.threshold,
	}
	if !c.triggered {
		return res
	}
	res.Severity = c.severity

	claimedAt, claimed, err := e.cooldown.Acquire(ctx, key, cooldown)
	if err != nil {
		// Without a working cooldown store, alert rather than stay silent.
		e.logger.Warn("cooldown claim failed, dispatching anyway",
			"alert_key", key,
			"error", err,
		)
		claimed = true
	}
	if !claimed {
		res.Outcome = OutcomeSuppressed
		e.logger.Debug("alert suppressed by cooldown", "alert_key", key)
		return res
	}

	msg := notify.Message{
		Key:       key,
		Condition: string(c.condition),
		Severity:  c.severity,
		Provider:  providerName,
		Feature:   feature,
		Title:     c.title,
		Body:      logging.Redact(c.body),
		Timestamp: e.nowFunc(),
	}
	res.Message = &msg

	if err := e.sink.Deliver(ctx, msg); err != nil {
		res.Outcome = OutcomeDeliveryFailed
		res.Error = err.Error()
		e.logger.Warn("alert delivery failed",
			"alert_key", key,
			"sink", e.sink.Name(),
			"error", err,
		)
		if rerr := e.cooldown.Release(ctx, key, claimedAt); rerr != nil {
			e.logger.Warn("failed to release cooldown", "alert_key", key, "error", rerr)
		}
		return res
	}

	res.Outcome = OutcomeDispatched
	e.logger.Info("alert dispatched",
		"alert_key", key,
		"severity", c.severity,
		"value", c.value,
		"threshold", c.threshold,
	)
	return res
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// windowLabel renders a window as "24h", "30m" or "1h30m0s".
func windowLabel(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	case d < time.Hour && d%time.Minute == 0:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	default:
		return d.String()
	}
}
