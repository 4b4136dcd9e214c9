// Package server exposes the orchestrator over HTTP.
//
// # Endpoints
//
//	POST /v1/select     choose a provider: {"feature": "chat", "exclude": ["groq"]}
//	POST /v1/outcomes   report an invocation outcome
//	POST /v1/sweep      run a health sweep now
//	GET  /v1/dashboard  aggregate metrics, budgets and routing statistics
//	GET  /health        liveness
//	GET  /ready         readiness of the usage and state stores
//	GET  /version       build information
//	GET  /metrics       Prometheus metrics (path configurable)
//
// Errors are returned as {"error": {"message", "type", "param", "code"}}
// with a status code derived from the type.
//
// # Lifecycle
//
//	srv := server.New(&cfg.Server, svc, server.Options{Checker: checker})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled and then drains in-flight requests for
// up to the configured shutdown timeout.
package server
