// Package alerting turns provider metrics into operator notifications.
//
// # Conditions
//
// CheckAndAlert evaluates four independent conditions for one provider and
// feature pair:
//
//	error_rate            critical  requests >= MinSamples and success rate < 1 - ErrorRate
//	latency               warning   requests > 0 and average latency > LatencyMs
//	cost                  warning   window cost > CostUSD
//	consecutive_failures  critical  failure count >= ConsecutiveFailures
//
// CheckBudget adds per-provider budget conditions: budget, a warning once
// spend reaches the provider's alert threshold, and budget_exhausted, critical
// once the budget is gone. They use separate keys so the warning never holds
// back the exhaustion alert.
//
// # Cooldown
//
// Every condition has its own key, "condition:provider:feature". A triggered
// condition first claims its key in the state store; only the caller that
// wins the claim dispatches, so concurrent evaluations notify at most once
// per cooldown period. When delivery fails the claim is released so the next
// cycle can try again; a newer claim taken meanwhile by another instance is
// left in place. There is no notification when a condition clears.
package alerting
