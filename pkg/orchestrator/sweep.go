package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/alerting"
	"mercator-hq/switchboard/pkg/budget"
)

// SweepReport is the full result of one health sweep.
type SweepReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Pairs holds one report per provider and feature pair, ordered by
	// provider priority then feature name. Pairs not reached before the
	// sweep was interrupted are omitted.
	Pairs []alerting.Report `json:"pairs"`

	// Budgets holds the budget report of every provider. Free providers
	// never trigger but still carry their status.
	Budgets []alerting.Report `json:"budgets"`

	Dispatched     int `json:"dispatched"`
	Suppressed     int `json:"suppressed"`
	DeliveryFailed int `json:"delivery_failed"`

	// Error is set when the sweep was interrupted.
	Error string `json:"error,omitempty"`
}

// SweepSummary is the compact form of a SweepReport.
type SweepSummary struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Pairs          int           `json:"pairs"`
	Dispatched     int           `json:"dispatched"`
	Suppressed     int           `json:"suppressed"`
	DeliveryFailed int           `json:"delivery_failed"`
	Error          string        `json:"error,omitempty"`
}

// Summary returns the compact form of the report.
func (r SweepReport) Summary() SweepSummary {
	return SweepSummary{
		StartedAt:      r.StartedAt,
		Duration:       r.Duration,
		Pairs:          len(r.Pairs),
		Dispatched:     r.Dispatched,
		Suppressed:     r.Suppressed,
		DeliveryFailed: r.DeliveryFailed,
		Error:          r.Error,
	}
}

// RunHealthSweep evaluates every provider and feature pair with the alert
// engine, covering configured features as well as any feature with recorded
// traffic, then checks every provider's budget. Alerts are dispatched as
// they trigger; cooldowns keep repeated sweeps from re-notifying.
//
// Only one sweep runs at a time; a concurrent call returns
// ErrSweepInProgress. When ctx ends mid-sweep the partial report is
// returned together with the context error.
func (s *Service) RunHealthSweep(ctx context.Context) (SweepReport, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return SweepReport{}, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	if s.sweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sweepTimeout)
		defer cancel()
	}

	start := s.nowFunc()
	providers := s.registry.Providers()
	features := s.features(ctx, s.alerts.Thresholds().Window)

	pairs := make([]alerting.Report, len(providers)*len(features))
	budgets := make([]alerting.Report, len(providers))

	var g errgroup.Group
	g.SetLimit(s.sweepConcurrency)

	for i, p := range providers {
		for j, feature := range features {
			idx := i*len(features) + j
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				pairs[idx] = s.alerts.CheckAndAlert(ctx, p.ID, feature)
				return nil
			})
		}
	}
	for i, p := range providers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.Free() {
				status := s.budget.Evaluate(ctx, p)
				budgets[i] = alerting.Report{Provider: string(p.ID), Feature: aggregate.All, Status: &status}
				return nil
			}
			budgets[i] = s.alerts.CheckBudget(ctx, p)
			return nil
		})
	}
	err := g.Wait()

	report := SweepReport{StartedAt: start}
	for _, r := range pairs {
		if r.Provider == "" {
			continue
		}
		report.Pairs = append(report.Pairs, r)
		s.observePair(r)
		report.count(r)
	}
	for _, r := range budgets {
		if r.Provider == "" {
			continue
		}
		report.Budgets = append(report.Budgets, r)
		s.observeBudget(r)
		report.count(r)
	}
	report.Duration = s.nowFunc().Sub(start)

	if err != nil {
		err = fmt.Errorf("health sweep interrupted: %w", err)
		report.Error = err.Error()
		s.logger.Warn("health sweep interrupted",
			"pairs_checked", len(report.Pairs),
			"pairs_total", len(pairs),
			"error", err,
		)
	} else {
		s.logger.Info("health sweep completed",
			"pairs", len(report.Pairs),
			"dispatched", report.Dispatched,
			"suppressed", report.Suppressed,
			"delivery_failed", report.DeliveryFailed,
			"duration", report.Duration,
		)
	}

	if s.metrics != nil {
		s.metrics.RecordSweep(report.Duration, len(report.Pairs), err)
	}

	s.mu.Lock()
	s.lastSweep = &report
	s.mu.Unlock()

	return report, err
}

// LastSweep returns the most recent sweep report, or nil before the first
// sweep completes.
func (s *Service) LastSweep() *SweepReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSweep
}

func (r *SweepReport) count(rep alerting.Report) {
	r.Dispatched += rep.Count(alerting.OutcomeDispatched)
	r.Suppressed += rep.Count(alerting.OutcomeSuppressed)
	r.DeliveryFailed += rep.Count(alerting.OutcomeDeliveryFailed)
}

func (s *Service) observePair(r alerting.Report) {
	if s.metrics == nil {
		return
	}
	if r.Metrics != nil && r.Metrics.TotalRequests > 0 {
		s.metrics.UpdatePairHealth(r.Provider, r.Feature, r.Metrics.SuccessRate, r.Metrics.AvgLatencyMs)
	}
	s.metrics.UpdateConsecutiveFailures(r.Provider, r.Feature, r.Failures)
	s.observeAlerts(r)
}

func (s *Service) observeBudget(r alerting.Report) {
	if s.metrics == nil {
		return
	}
	if r.Status != nil {
		s.metrics.UpdateBudget(r.Provider, r.Status.SpentThisMonth, utilization(*r.Status), r.Status.Available)
	}
	s.observeAlerts(r)
}

func (s *Service) observeAlerts(r alerting.Report) {
	for _, res := range r.Results {
		if res.Outcome == alerting.OutcomeNotTriggered {
			continue
		}
		s.metrics.RecordAlert(string(res.Condition), string(res.Severity), string(res.Outcome))
	}
}

func utilization(status budget.Status) float64 {
	if status.Free {
		return 0
	}
	return status.Percentage
}
