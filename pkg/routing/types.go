package routing

import (
	"time"

	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/provider"
)

// ReasonCode classifies how a provider was chosen.
type ReasonCode string

const (
	// ReasonPrimary means the feature's preferred provider was chosen.
	ReasonPrimary ReasonCode = "primary"

	// ReasonFallback means one or more preferred providers were skipped.
	ReasonFallback ReasonCode = "fallback"

	// ReasonLastResort means every candidate was excluded or over budget and
	// the designated last-resort provider was returned anyway.
	ReasonLastResort ReasonCode = "last_resort"
)

// Skip records a provider passed over during selection.
type Skip struct {
	Provider provider.ID `json:"provider"`
	Reason   string      `json:"reason"`
}

// Cause classifies the skip as "excluded" or "over_budget".
func (s Skip) Cause() string {
	if s.Reason == skipExcluded {
		return "excluded"
	}
	return "over_budget"
}

// Decision is the outcome of a provider selection.
// A Decision always names a provider.
type Decision struct {
	// Provider is the selected provider.
	Provider provider.ID `json:"provider"`

	// Feature is the feature the selection was made for.
	Feature string `json:"feature"`

	// Reason is a human-readable explanation of the choice.
	Reason string `json:"reason"`

	// Code classifies the choice.
	Code ReasonCode `json:"code"`

	// Degraded is false only when the feature's top-priority provider was
	// chosen and it is on a free tier.
	Degraded bool `json:"degraded"`

	// Status is the availability of the chosen provider at decision time.
	Status budget.Status `json:"status"`

	// Skipped lists the providers passed over, in priority order.
	Skipped []Skip `json:"skipped,omitempty"`

	// DecidedAt is when the decision was made.
	DecidedAt time.Time `json:"decided_at"`
}

// RoutingStats contains statistics about routing decisions.
type RoutingStats struct {
	// TotalRequests is the total number of selections made.
	TotalRequests int64 `json:"total_requests"`

	// RequestsPerProvider tracks selections per provider.
	RequestsPerProvider map[string]int64 `json:"requests_per_provider"`

	// ReasonCodeCount tracks selections per reason code.
	ReasonCodeCount map[string]int64 `json:"reason_code_count"`

	// DegradedCount is the number of degraded selections.
	DegradedCount int64 `json:"degraded_count"`

	// ExcludedCount is the number of providers skipped because the caller
	// excluded them.
	ExcludedCount int64 `json:"excluded_count"`

	// OverBudgetCount is the number of providers skipped because their
	// monthly budget was exhausted.
	OverBudgetCount int64 `json:"over_budget_count"`

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}
