package aggregate

import (
	"time"

	"mercator-hq/switchboard/pkg/usage"
)

// All labels a grouping that spans every provider or every feature.
const All = "all"

// Metrics is a snapshot of provider quality over a window.
type Metrics struct {
	Provider string `json:"provider"`
	Feature  string `json:"feature"`

	TotalRequests int64   `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorCount    int64   `json:"error_count"`

	// AvgLatencyMs is the mean over records that carry a latency.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// LatencySamples is the number of records contributing to AvgLatencyMs.
	LatencySamples int64 `json:"latency_samples"`

	// TotalCost is in USD; records without a cost count as zero.
	TotalCost float64 `json:"total_cost"`

	// LastError is the message of the most recent failure.
	LastError string `json:"last_error,omitempty"`

	// LastErrorAt is when the most recent failure was recorded.
	LastErrorAt time.Time `json:"last_error_at,omitzero"`

	// LastUsed is the timestamp of the most recent record.
	LastUsed time.Time `json:"last_used,omitzero"`
}

// ErrorRate returns the failure fraction, 0 when there were no requests.
func (m Metrics) ErrorRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return 1 - m.SuccessRate
}

// Compute derives metrics from records. Records may be in any order.
func Compute(providerName, feature string, records []usage.Record) Metrics {
	m := Metrics{Provider: providerName, Feature: feature}

	var successes int64
	var latencyTotal float64

	for _, r := range records {
		m.TotalRequests++
		if r.Success {
			successes++
		} else if m.LastErrorAt.IsZero() || !r.Timestamp.Before(m.LastErrorAt) {
			m.LastError = r.Error
			m.LastErrorAt = r.Timestamp
		}

		if r.Latency != nil {
			latencyTotal += float64(*r.Latency) / float64(time.Millisecond)
			m.LatencySamples++
		}

		m.TotalCost += r.CostValue()

		if r.Timestamp.After(m.LastUsed) {
			m.LastUsed = r.Timestamp
		}
	}

	m.ErrorCount = m.TotalRequests - successes
	if m.TotalRequests > 0 {
		m.SuccessRate = float64(successes) / float64(m.TotalRequests)
	}
	if m.LatencySamples > 0 {
		m.AvgLatencyMs = latencyTotal / float64(m.LatencySamples)
	}

	return m
}

// Combine merges metrics into one grouping. Counts and costs are summed;
// success rate is weighted by request count and latency by latency samples.
func Combine(providerName, feature string, parts []Metrics) Metrics {
	m := Metrics{Provider: providerName, Feature: feature}

	var weightedSuccess, weightedLatency float64

	for _, p := range parts {
		m.TotalRequests += p.TotalRequests
		m.ErrorCount += p.ErrorCount
		m.TotalCost += p.TotalCost
		m.LatencySamples += p.LatencySamples

		weightedSuccess += p.SuccessRate * float64(p.TotalRequests)
		weightedLatency += p.AvgLatencyMs * float64(p.LatencySamples)

		if p.LastErrorAt.After(m.LastErrorAt) {
			m.LastError = p.LastError
			m.LastErrorAt = p.LastErrorAt
		}
		if p.LastUsed.After(m.LastUsed) {
			m.LastUsed = p.LastUsed
		}
	}

	if m.TotalRequests > 0 {
		m.SuccessRate = weightedSuccess / float64(m.TotalRequests)
	}
	if m.LatencySamples > 0 {
		m.AvgLatencyMs = weightedLatency / float64(m.LatencySamples)
	}

	return m
}
