// Package aggregate derives rolling quality metrics from the usage log.
//
// Metrics for a single provider and feature are computed from the raw
// records in the window. Metrics for wider groupings (a provider across all
// features, a feature across all providers, everything) are built with
// Combine, which sums counts and costs and recomputes rates as
// count-weighted averages:
//
//	a := Metrics{TotalRequests: 100, SuccessRate: 0.5}
//	b := Metrics{TotalRequests: 1, SuccessRate: 1.0}
//	Combine("all", "all", []Metrics{a, b}).SuccessRate // 0.505, not 0.75
//
// Store failures never surface to callers: they are logged and produce
// zero-valued metrics.
package aggregate
