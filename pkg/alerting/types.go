package alerting

import (
	"errors"
	"fmt"
	"time"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/notify"
)

// Condition names an alert condition.
type Condition string

// Supported conditions.
const (
	ConditionErrorRate           Condition = "error_rate"
	ConditionLatency             Condition = "latency"
	ConditionCost                Condition = "cost"
	ConditionConsecutiveFailures Condition = "consecutive_failures"
	ConditionBudget              Condition = "budget"
	ConditionBudgetExhausted     Condition = "budget_exhausted"
)

// Outcome is what happened to one evaluated condition.
type Outcome string

const (
	// OutcomeNotTriggered means the condition does not hold.
	OutcomeNotTriggered Outcome = "not_triggered"

	// OutcomeDispatched means a notification was delivered.
	OutcomeDispatched Outcome = "dispatched"

	// OutcomeSuppressed means the condition holds but its cooldown is active.
	OutcomeSuppressed Outcome = "suppressed"

	// OutcomeDeliveryFailed means the sink rejected the notification.
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Key returns the cooldown key of a condition for a provider and feature.
func Key(c Condition, provider, feature string) string {
	return string(c) + ":" + provider + ":" + feature
}

// Thresholds configures when conditions trigger.
type Thresholds struct {
	// ErrorRate is the tolerated failure fraction (0-1).
	// Default: 0.3
	ErrorRate float64 `yaml:"error_rate" json:"error_rate"`

	// MinSamples is the request count below which error rate is ignored.
	// Default: 10
	MinSamples int64 `yaml:"min_samples" json:"min_samples"`

	// LatencyMs is the tolerated average latency in milliseconds.
	// Default: 10000
	LatencyMs float64 `yaml:"latency_ms" json:"latency_ms"`

	// CostUSD is the tolerated spend over Window.
	// Default: 5
	CostUSD float64 `yaml:"cost_usd" json:"cost_usd"`

	// ConsecutiveFailures is the failure streak that triggers an alert.
	// Default: 5
	ConsecutiveFailures int64 `yaml:"consecutive_failures" json:"consecutive_failures"`

	// Cooldown is the minimum interval between alerts with the same key.
	// Default: 1h
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`

	// Window is the metrics window the conditions are evaluated over.
	// Default: 24h
	Window time.Duration `yaml:"window" json:"window"`
}

// DefaultThresholds returns the default alerting thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorRate:           0.3,
		MinSamples:          10,
		LatencyMs:           10000,
		CostUSD:             5,
		ConsecutiveFailures: 5,
		Cooldown:            time.Hour,
		Window:              24 * time.Hour,
	}
}

// ErrInvalidThresholds is matched by threshold validation errors.
var ErrInvalidThresholds = errors.New("invalid alert thresholds")

// Validate checks that every threshold is usable.
func (t Thresholds) Validate() error {
	var errs []error
	if t.ErrorRate < 0 || t.ErrorRate > 1 {
		errs = append(errs, fmt.Errorf("error_rate must be between 0 and 1, got %v", t.ErrorRate))
	}
	if t.MinSamples < 1 {
		errs = append(errs, fmt.Errorf("min_samples must be positive, got %d", t.MinSamples))
	}
	if t.LatencyMs <= 0 {
		errs = append(errs, fmt.Errorf("latency_ms must be positive, got %v", t.LatencyMs))
	}
	if t.CostUSD < 0 {
		errs = append(errs, fmt.Errorf("cost_usd cannot be negative, got %v", t.CostUSD))
	}
	if t.ConsecutiveFailures < 1 {
		errs = append(errs, fmt.Errorf("consecutive_failures must be positive, got %d", t.ConsecutiveFailures))
	}
	if t.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown cannot be negative, got %v", t.Cooldown))
	}
	if t.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %v", t.Window))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThresholds, errors.Join(errs...))
	}
	return nil
}

// Result is the evaluation of one condition.
type Result struct {
	Condition Condition       `json:"condition"`
	Key       string          `json:"key"`
	Severity  notify.Severity `json:"severity,omitempty"`
	Outcome   Outcome         `json:"outcome"`

	// Value is the measured value and Threshold the limit it was compared to.
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`

	// Message is set when a notification was attempted.
	Message *notify.Message `json:"message,omitempty"`

	// Error is the delivery error for OutcomeDeliveryFailed.
	Error string `json:"error,omitempty"`
}

// Report is the outcome of one CheckAndAlert or CheckBudget call.
type Report struct {
	Provider string `json:"provider"`
	Feature  string `json:"feature"`

	// Metrics is the snapshot the pair conditions were evaluated against.
	Metrics *aggregate.Metrics `json:"metrics,omitempty"`

	// Failures is the consecutive failure count at evaluation time.
	Failures int64 `json:"failures"`

	// Status is the budget status a CheckBudget call evaluated.
	Status *budget.Status `json:"status,omitempty"`

	Results []Result `json:"results"`
}

// Count returns how many results have outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Result returns the result for condition c.
func (r Report) Result(c Condition) (Result, bool) {
	for _, res := range r.Results {
		if res.Condition == c {
			return res, true
		}
	}
	return Result{}, false
}
