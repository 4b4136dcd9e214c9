// Package orchestrator wires budget tracking, provider selection, failure
// tracking, metrics aggregation and alerting into the four operations
// callers use:
//
//   - SelectProvider picks a provider for a feature and records the decision
//   - ReportOutcome appends an invocation outcome to the usage log and
//     updates the pair's consecutive failure counter
//   - RunHealthSweep evaluates every provider and feature pair plus every
//     budget, dispatching alerts through the cooldown-guarded engine
//   - Dashboard returns the aggregate read-only view
//
// A Scheduler runs RunHealthSweep on a cron schedule. Only one sweep runs
// at a time; overlapping triggers are skipped.
//
// Example:
//
//	svc, err := orchestrator.New(orchestrator.Config{
//	    Registry:   registry,
//	    Selector:   routing.NewSelector(registry, evaluator, logger),
//	    Store:      store,
//	    Failures:   failures.NewTracker(kv, logger),
//	    Aggregator: aggregate.NewAggregator(store, aggregate.Config{}),
//	    Alerts:     engine,
//	    Budget:     evaluator,
//	})
//	if err != nil {
//	    return err
//	}
//
//	d := svc.SelectProvider(ctx, "chat", nil)
//	// call d.Provider ...
//	_ = svc.ReportOutcome(ctx, orchestrator.Outcome{Provider: d.Provider, Feature: "chat", Success: true})
package orchestrator
