package aggregate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/usage"
)

func dur(ms int) *time.Duration {
	d := time.Duration(ms) * time.Millisecond
	return &d
}

func cost(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var base = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func record(p provider.ID, feature string, offset time.Duration, success bool) usage.Record {
	r := usage.Record{
		ID:        uuid.NewString(),
		Provider:  p,
		Feature:   feature,
		Timestamp: base.Add(offset),
		Success:   success,
	}
	if !success {
		r.Error = "failed at " + offset.String()
	}
	return r
}

func TestCompute_Empty(t *testing.T) {
	m := Compute("groq", "chat", nil)
	if m.TotalRequests != 0 || m.SuccessRate != 0 || m.AvgLatencyMs != 0 || m.ErrorRate() != 0 {
		t.Errorf("Compute(nil) = %+v, want zero metrics", m)
	}
	if math.IsNaN(m.SuccessRate) || math.IsNaN(m.AvgLatencyMs) {
		t.Error("Compute(nil) produced NaN")
	}
}

func TestCompute(t *testing.T) {
	r1 := record(provider.Groq, "chat", 0, true)
	r1.Latency = dur(100)
	r1.Cost = cost(0.25)

	r2 := record(provider.Groq, "chat", time.Minute, false)
	r2.Latency = dur(300)

	// No latency: excluded from the mean, not counted as zero.
	r3 := record(provider.Groq, "chat", 2*time.Minute, true)
	r3.Cost = cost(0.5)

	r4 := record(provider.Groq, "chat", 3*time.Minute, false)

	// Out of order input.
	m := Compute("groq", "chat", []usage.Record{r3, r1, r4, r2})

	if m.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", m.TotalRequests)
	}
	if !approx(m.SuccessRate, 0.5) {
		t.Errorf("SuccessRate = %v, want 0.5", m.SuccessRate)
	}
	if m.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", m.ErrorCount)
	}
	if !approx(m.AvgLatencyMs, 200) {
		t.Errorf("AvgLatencyMs = %v, want 200", m.AvgLatencyMs)
	}
	if m.LatencySamples != 2 {
		t.Errorf("LatencySamples = %d, want 2", m.LatencySamples)
	}
	if !approx(m.TotalCost, 0.75) {
		t.Errorf("TotalCost = %v, want 0.75", m.TotalCost)
	}
	if m.LastError != r4.Error {
		t.Errorf("LastError = %q, want %q", m.LastError, r4.Error)
	}
	if !m.LastUsed.Equal(r4.Timestamp) {
		t.Errorf("LastUsed = %v, want %v", m.LastUsed, r4.Timestamp)
	}
}

func TestCompute_LastUsedIncludesSuccess(t *testing.T) {
	fail := record(provider.Groq, "chat", 0, false)
	ok := record(provider.Groq, "chat", time.Hour, true)

	m := Compute("groq", "chat", []usage.Record{fail, ok})
	if !m.LastUsed.Equal(ok.Timestamp) {
		t.Errorf("LastUsed = %v, want %v", m.LastUsed, ok.Timestamp)
	}
	if m.LastError != fail.Error {
		t.Errorf("LastError = %q, want %q", m.LastError, fail.Error)
	}
}

func TestCombine_WeightedRates(t *testing.T) {
	a := Metrics{Provider: "groq", TotalRequests: 100, SuccessRate: 0.5, ErrorCount: 50}
	b := Metrics{Provider: "openai", TotalRequests: 1, SuccessRate: 1.0}

	m := Combine(All, All, []Metrics{a, b})
	if !approx(m.SuccessRate, 0.505) {
		t.Errorf("SuccessRate = %v, want 0.505", m.SuccessRate)
	}
	if m.TotalRequests != 101 || m.ErrorCount != 50 {
		t.Errorf("TotalRequests = %d, ErrorCount = %d, want 101 and 50", m.TotalRequests, m.ErrorCount)
	}
}

func TestCombine_LatencyWeightedBySamples(t *testing.T) {
	a := Metrics{TotalRequests: 10, LatencySamples: 3, AvgLatencyMs: 100}
	b := Metrics{TotalRequests: 10, LatencySamples: 1, AvgLatencyMs: 500}
	c := Metrics{TotalRequests: 5}

	m := Combine(All, All, []Metrics{a, b, c})
	if !approx(m.AvgLatencyMs, 200) {
		t.Errorf("AvgLatencyMs = %v, want 200", m.AvgLatencyMs)
	}
}

func TestCombine_Recency(t *testing.T) {
	older := Metrics{LastError: "old", LastErrorAt: base, LastUsed: base.Add(time.Hour)}
	newer := Metrics{LastError: "new", LastErrorAt: base.Add(30 * time.Minute), LastUsed: base.Add(40 * time.Minute)}

	m := Combine(All, All, []Metrics{newer, older})
	if m.LastError != "new" {
		t.Errorf("LastError = %q, want new", m.LastError)
	}
	if !m.LastUsed.Equal(base.Add(time.Hour)) {
		t.Errorf("LastUsed = %v, want %v", m.LastUsed, base.Add(time.Hour))
	}
}

func TestCombine_Empty(t *testing.T) {
	m := Combine(All, All, nil)
	if m.TotalRequests != 0 || m.SuccessRate != 0 || m.AvgLatencyMs != 0 {
		t.Errorf("Combine(nil) = %+v, want zero metrics", m)
	}
}

func newSeededStore(t *testing.T) usage.Store {
	t.Helper()
	store := usage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	recs := []usage.Record{
		record(provider.Groq, "chat", -30*time.Minute, true),
		record(provider.Groq, "chat", -20*time.Minute, false),
		record(provider.Groq, "summarize", -10*time.Minute, true),
		record(provider.OpenAI, "chat", -5*time.Minute, true),
		// Outside a one hour window.
		record(provider.OpenAI, "chat", -3*time.Hour, false),
	}
	for _, r := range recs {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	return store
}

func TestAggregator_MetricsForWindow(t *testing.T) {
	agg := NewAggregator(newSeededStore(t), Config{Now: func() time.Time { return base }})
	ctx := context.Background()

	m := agg.MetricsFor(ctx, provider.OpenAI, "chat", time.Hour)
	if m.TotalRequests != 1 || m.SuccessRate != 1 {
		t.Errorf("MetricsFor(openai, 1h) = %+v, want one successful request", m)
	}

	m = agg.MetricsFor(ctx, provider.OpenAI, "chat", 4*time.Hour)
	if m.TotalRequests != 2 {
		t.Errorf("MetricsFor(openai, 4h).TotalRequests = %d, want 2", m.TotalRequests)
	}

	m = agg.MetricsFor(ctx, provider.Mistral, "chat", time.Hour)
	if m.TotalRequests != 0 {
		t.Errorf("MetricsFor(no history).TotalRequests = %d, want 0", m.TotalRequests)
	}
}

type failingStore struct {
	usage.Store
}

func (failingStore) Query(context.Context, provider.ID, string, time.Time) ([]usage.Record, error) {
	return nil, errors.New("disk I/O error")
}

func TestAggregator_StoreFailure(t *testing.T) {
	agg := NewAggregator(failingStore{}, Config{})
	m := agg.MetricsFor(context.Background(), provider.Groq, "chat", time.Hour)
	if m.TotalRequests != 0 || m.Provider != "groq" || m.Feature != "chat" {
		t.Errorf("MetricsFor() on failing store = %+v, want labelled zero metrics", m)
	}
}

func TestAggregator_Dashboard(t *testing.T) {
	agg := NewAggregator(newSeededStore(t), Config{Now: func() time.Time { return base }, Concurrency: 2})

	d := agg.Dashboard(context.Background(),
		[]provider.ID{provider.OpenAI, provider.Groq},
		[]string{"summarize", "chat"},
		time.Hour,
	)

	if len(d.Pairs) != 4 {
		t.Fatalf("len(Pairs) = %d, want 4", len(d.Pairs))
	}
	if d.Pairs[0].Provider != "groq" || d.Pairs[0].Feature != "chat" {
		t.Errorf("Pairs[0] = %s/%s, want groq/chat", d.Pairs[0].Provider, d.Pairs[0].Feature)
	}

	if d.Overall.TotalRequests != 4 {
		t.Errorf("Overall.TotalRequests = %d, want 4", d.Overall.TotalRequests)
	}
	if !approx(d.Overall.SuccessRate, 0.75) {
		t.Errorf("Overall.SuccessRate = %v, want 0.75", d.Overall.SuccessRate)
	}

	groq := d.ByProvider["groq"]
	if groq.TotalRequests != 3 || groq.Feature != All {
		t.Errorf("ByProvider[groq] = %+v, want 3 requests across all features", groq)
	}

	chat := d.ByFeature["chat"]
	if chat.TotalRequests != 3 || chat.Provider != All {
		t.Errorf("ByFeature[chat] = %+v, want 3 requests across all providers", chat)
	}
	if !approx(chat.SuccessRate, 2.0/3.0) {
		t.Errorf("ByFeature[chat].SuccessRate = %v, want 2/3", chat.SuccessRate)
	}

	if !d.GeneratedAt.Equal(base) || d.Window != time.Hour {
		t.Errorf("GeneratedAt = %v, Window = %v", d.GeneratedAt, d.Window)
	}
}
