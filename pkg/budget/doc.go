// Package budget computes per-provider spend and budget availability.
//
// # Overview
//
// Spend is read from the usage log on every call; nothing is cached, so a
// Status always reflects the store at the moment it was computed. Windows are
// calendar based rather than rolling:
//
//   - Today: from local midnight to now
//   - This month: from the first of the local month to now
//
// # Degradation
//
// The Tracker never returns an error. Each store query is bounded by a short
// timeout and guarded by a circuit breaker; when the store is slow, failing
// or the breaker is open, the spend is reported as zero and a warning is
// logged. Provider selection therefore keeps working during a usage store
// outage, at the cost of treating paid providers as unspent.
//
// # Usage
//
//	tracker := budget.NewTracker(store, budget.TrackerConfig{
//	    QueryTimeout: 2 * time.Second,
//	})
//	evaluator := budget.NewEvaluator(tracker)
//
//	status := evaluator.Evaluate(ctx, cfg)
//	if !status.Available {
//	    log.Println(status.Reason)
//	}
//
// # Advisory Admission
//
// Availability is advisory: two concurrent selections can both observe a
// paid provider just under its budget and both proceed.
package budget
