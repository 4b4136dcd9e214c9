package app

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/health"
)

func testConfig() *config.Config {
	cfg := config.Default()
	budget := 50.0
	cfg.Providers = []config.ProviderConfig{
		{ID: "groq", Priority: 1},
		{ID: "openai", Priority: 2, MonthlyBudget: &budget, AlertThreshold: 0.8, CostPerUnit: 0.01},
	}
	cfg.Usage.Backend = "memory"
	cfg.State.Backend = "memory"
	cfg.Notify.Log = true
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_MemoryBackends(t *testing.T) {
	a := newTestApp(t, testConfig())

	if a.Service == nil || a.Engine == nil || a.Tracker == nil || a.Checker == nil {
		t.Fatal("New() left components unset")
	}
	if a.Metrics == nil {
		t.Error("Metrics = nil, want collector when metrics are enabled")
	}

	d := a.Service.SelectProvider(context.Background(), "chat", nil)
	if d.Provider != provider.Groq || d.Code != routing.ReasonPrimary {
		t.Errorf("SelectProvider() = %s/%s, want groq/primary", d.Provider, d.Code)
	}

	status := a.Checker.CheckReadiness(context.Background())
	if status.Status != health.StatusReady {
		t.Errorf("CheckReadiness() = %q, want %q", status.Status, health.StatusReady)
	}
	for _, name := range []string{"usage_store", "state_store", "spend_breaker"} {
		if _, ok := status.Checks[name]; !ok {
			t.Errorf("readiness checks missing %q", name)
		}
	}
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.Metrics.Enabled = false

	a := newTestApp(t, cfg)
	if a.Metrics != nil {
		t.Error("Metrics != nil with metrics disabled")
	}
}

func TestNew_SQLiteBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Usage.Backend = "sqlite"
	cfg.Usage.SQLite.Path = filepath.Join(t.TempDir(), "usage.db")

	a := newTestApp(t, cfg)
	ctx := context.Background()

	cost := 12.5
	latency := 300 * time.Millisecond
	err := a.Service.ReportOutcome(ctx, orchestrator.Outcome{
		Provider: provider.OpenAI,
		Feature:  "chat",
		Success:  true,
		Latency:  &latency,
		Cost:     &cost,
	})
	if err != nil {
		t.Fatalf("ReportOutcome() error = %v", err)
	}
	if got := a.Tracker.CostThisMonth(ctx, provider.OpenAI); got != cost {
		t.Errorf("CostThisMonth() = %v, want %v", got, cost)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown provider",
			mutate: func(c *config.Config) { c.Providers[0].ID = "cohere" },
			want:   "invalid provider configuration",
		},
		{
			name:   "unknown usage backend",
			mutate: func(c *config.Config) { c.Usage.Backend = "postgres" },
			want:   "unsupported usage backend",
		},
		{
			name:   "unknown state backend",
			mutate: func(c *config.Config) { c.State.Backend = "etcd" },
			want:   "unsupported state backend",
		},
		{
			name:   "bad timezone",
			mutate: func(c *config.Config) { c.Budget.Timezone = "Mars/Olympus" },
			want:   "Mars/Olympus",
		},
		{
			name:   "bad webhook",
			mutate: func(c *config.Config) { c.Notify.Webhook.URL = "ftp://example.com" },
			want:   "invalid webhook sink",
		},
		{
			name:   "bad thresholds",
			mutate: func(c *config.Config) { c.Alerting.ErrorRateThreshold = 2 },
			want:   "error_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			a, err := New(cfg, nil)
			if err == nil {
				_ = a.Close()
				t.Fatal("New() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyConfig(t *testing.T) {
	a := newTestApp(t, testConfig())

	next := testConfig()
	next.Alerting.CostThreshold = 20
	next.Alerting.Cooldown = 10 * time.Minute
	if err := a.ApplyConfig(next); err != nil {
		t.Fatalf("ApplyConfig() error = %v", err)
	}
	got := a.Engine.Thresholds()
	if got.CostUSD != 20 || got.Cooldown != 10*time.Minute {
		t.Errorf("Thresholds() = %+v, want cost 20 and cooldown 10m", got)
	}
	if a.Config != next {
		t.Error("ApplyConfig() did not keep the new configuration")
	}

	bad := testConfig()
	bad.Alerting.LatencyThresholdMs = -1
	if err := a.ApplyConfig(bad); err == nil {
		t.Error("ApplyConfig(invalid) error = nil, want error")
	}
	if a.Engine.Thresholds().CostUSD != 20 {
		t.Error("invalid reload replaced the running thresholds")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{
		Level:         "info",
		Format:        "json",
		RedactSecrets: true,
		RedactPatterns: []config.RedactPattern{
			{Name: "ticket", Pattern: `TCK-\d+`, Replacement: "[TICKET]"},
		},
	}, &buf)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("escalated", "note", "see TCK-1234")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["note"] != "see [TICKET]" {
		t.Errorf("note = %v, want redacted ticket", entry["note"])
	}
}

func TestThresholds(t *testing.T) {
	cfg := config.Default()
	got := Thresholds(cfg.Alerting)

	if got.ErrorRate != config.DefaultErrorRateThreshold {
		t.Errorf("ErrorRate = %v, want %v", got.ErrorRate, config.DefaultErrorRateThreshold)
	}
	if got.ConsecutiveFailures != config.DefaultConsecutiveFailureThreshold {
		t.Errorf("ConsecutiveFailures = %v, want %v", got.ConsecutiveFailures, config.DefaultConsecutiveFailureThreshold)
	}
	if got.Window != config.DefaultMetricsWindow {
		t.Errorf("Window = %v, want %v", got.Window, config.DefaultMetricsWindow)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default thresholds invalid: %v", err)
	}
}
