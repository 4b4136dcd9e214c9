// Package telemetry groups Switchboard's observability packages.
//
//   - logging: structured slog logging with credential redaction
//   - metrics: Prometheus metrics on a private registry
//   - health: liveness and readiness probes
package telemetry
