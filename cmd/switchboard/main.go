// Switchboard decides which AI provider serves each request.
//
// It tracks spend against monthly budgets, falls back across providers in
// priority order, records invocation outcomes and raises alerts when error
// rate, latency, cost or budget thresholds are crossed.
//
// Usage:
//
//	# Start the HTTP service with the scheduled health sweep
//	switchboard run --config config.yaml
//
//	# Pick a provider for a feature
//	switchboard select chat --exclude openai
//
//	# Run one health sweep and print the results
//	switchboard sweep
//
//	# Show spend, budgets and routing statistics
//	switchboard dashboard --output json
//
//	# Check a configuration file
//	switchboard validate
package main

func main() {
	Execute()
}
