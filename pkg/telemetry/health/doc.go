// Package health provides liveness and readiness probes.
//
// Liveness (/health) only reports that the process is running. Readiness
// (/ready) runs every registered check concurrently, each under its own
// timeout:
//
//   - Critical checks (usage store, state store) make the service
//     "unhealthy" and return 503 when they fail.
//   - Advisory checks (for example the spend query circuit breaker) only
//     mark the service "degraded"; it still returns 200 because provider
//     selection keeps working without them.
//
// Usage:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("usage_store", health.PingCheck(store))
//	checker.RegisterAdvisoryCheck("spend_breaker", func(ctx context.Context) error {
//	    if tracker.BreakerState() == gobreaker.StateOpen {
//	        return errors.New("usage store breaker open")
//	    }
//	    return nil
//	})
//	health.Register(mux, checker, version, commit, buildTime)
package health
