package budget

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/switchboard/pkg/provider"
)

// Spender reports provider spend for the calendar windows.
type Spender interface {
	CostToday(ctx context.Context, id provider.ID) float64
	CostThisMonth(ctx context.Context, id provider.ID) float64
}

// Status is the availability verdict for one provider. It is computed fresh
// on every call and never cached.
type Status struct {
	// Provider is the evaluated provider.
	Provider provider.ID `json:"provider"`

	// Available is false only for paid providers whose month-to-date
	// spend has reached the monthly budget.
	Available bool `json:"available"`

	// Free is true for providers without a monthly budget.
	Free bool `json:"free"`

	// SpentToday is the spend since local midnight in USD.
	SpentToday float64 `json:"spent_today"`

	// SpentThisMonth is the spend since the first of the month in USD.
	SpentThisMonth float64 `json:"spent_this_month"`

	// MonthlyBudget is the configured ceiling, 0 for free providers.
	MonthlyBudget float64 `json:"monthly_budget"`

	// Percentage is the share of the monthly budget consumed (0.0-1.0+).
	// Always 0 for free providers.
	Percentage float64 `json:"percentage"`

	// DailyLimit is the informational daily quota.
	DailyLimit int64 `json:"daily_limit,omitempty"`

	// AlertTriggered is true when Percentage has reached the provider's
	// alert threshold.
	AlertTriggered bool `json:"alert_triggered"`

	// Reason explains why the provider is unavailable. Empty when available.
	Reason string `json:"reason,omitempty"`

	// Reset is when the monthly window restarts.
	Reset time.Time `json:"reset"`
}

// SpendSummary renders month-to-date spend against budget, for example
// "$49.00 of $50.00 (49/50)". Free providers render their spend only.
func (s Status) SpendSummary() string {
	if s.Free {
		return fmt.Sprintf("$%.2f this month, no budget", s.SpentThisMonth)
	}
	return fmt.Sprintf("$%.2f of $%.2f (%s/%s)",
		s.SpentThisMonth, s.MonthlyBudget, compact(s.SpentThisMonth), compact(s.MonthlyBudget))
}

// compact formats an amount without trailing zeros, rounded to cents.
func compact(v float64) string {
	return fmt.Sprintf("%g", float64(int64(v*100+0.5))/100)
}

// Clock is implemented by spenders that define their own calendar, such as
// Tracker with a configured time zone.
type Clock interface {
	Now() time.Time
}

// Evaluator combines spend with static provider configuration.
type Evaluator struct {
	spend   Spender
	nowFunc func() time.Time
}

// NewEvaluator creates an Evaluator backed by spend. When spend is a Clock
// the reported reset follows its time zone and clock, so it matches the
// month window the spend was summed over.
func NewEvaluator(spend Spender) *Evaluator {
	e := &Evaluator{spend: spend, nowFunc: time.Now}
	if c, ok := spend.(Clock); ok {
		e.nowFunc = c.Now
	}
	return e
}

// Evaluate computes the provider's current Status.
//
// Free providers are always available. Paid providers are available while
// month-to-date spend is strictly below the monthly budget. The daily limit
// is reported but never denies availability.
func (e *Evaluator) Evaluate(ctx context.Context, cfg provider.Config) Status {
	status := Status{
		Provider:       cfg.ID,
		Free:           cfg.Free(),
		SpentToday:     e.spend.CostToday(ctx, cfg.ID),
		SpentThisMonth: e.spend.CostThisMonth(ctx, cfg.ID),
		DailyLimit:     cfg.DailyLimit,
		Reset:          StartOfNextMonth(e.nowFunc()),
	}

	if status.Free {
		status.Available = true
		return status
	}

	status.MonthlyBudget = cfg.Budget()
	if status.MonthlyBudget > 0 {
		status.Percentage = status.SpentThisMonth / status.MonthlyBudget
	}
	status.AlertTriggered = cfg.AlertThreshold > 0 && status.Percentage >= cfg.AlertThreshold

	status.Available = status.SpentThisMonth < status.MonthlyBudget
	if !status.Available {
		status.Reason = "monthly budget exhausted: spent " + status.SpendSummary()
	}

	return status
}
