package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	budget := 50.0
	cfg := Default()
	cfg.Providers = []ProviderConfig{
		{ID: "groq", Priority: 1},
		{ID: "openai", Priority: 2, MonthlyBudget: &budget},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	negative := -1.0

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"no providers", func(c *Config) { c.Providers = nil }, "providers"},
		{"unknown provider", func(c *Config) { c.Providers[0].ID = "cohere" }, "providers[0].id"},
		{"duplicate provider", func(c *Config) { c.Providers[1].ID = "GROQ" }, "providers[1].id"},
		{"duplicate priority", func(c *Config) { c.Providers[1].Priority = 1 }, "providers[1].priority"},
		{"negative budget", func(c *Config) { c.Providers[1].MonthlyBudget = &negative }, "providers[1].monthly_budget"},
		{"alert threshold above one", func(c *Config) { c.Providers[1].AlertThreshold = 1.5 }, "providers[1].alert_threshold"},
		{"negative daily limit", func(c *Config) { c.Providers[0].DailyLimit = -5 }, "providers[0].daily_limit"},
		{"feature with unconfigured provider", func(c *Config) {
			c.Features = map[string]FeatureConfig{"chat": {Providers: []string{"mistral"}}}
		}, "features.chat.providers[0]"},
		{"feature with unknown provider", func(c *Config) {
			c.Features = map[string]FeatureConfig{"chat": {Providers: []string{"nope"}}}
		}, "features.chat.providers[0]"},
		{"feature without providers", func(c *Config) {
			c.Features = map[string]FeatureConfig{"chat": {}}
		}, "features.chat.providers"},
		{"unconfigured last resort", func(c *Config) { c.Routing.LastResort = "anthropic" }, "routing.last_resort"},
		{"unknown timezone", func(c *Config) { c.Budget.Timezone = "Mars/Olympus" }, "budget.timezone"},
		{"error rate zero", func(c *Config) { c.Alerting.ErrorRateThreshold = -0.1 }, "alerting.error_rate_threshold"},
		{"min samples zero", func(c *Config) { c.Alerting.MinSamples = -1 }, "alerting.min_samples"},
		{"negative cooldown", func(c *Config) { c.Alerting.Cooldown = -1 }, "alerting.cooldown"},
		{"unknown usage backend", func(c *Config) { c.Usage.Backend = "postgres" }, "usage.backend"},
		{"unknown sqlite driver", func(c *Config) { c.Usage.SQLite.Driver = "pgx" }, "usage.sqlite.driver"},
		{"unknown state backend", func(c *Config) { c.State.Backend = "etcd" }, "state.backend"},
		{"redis without address", func(c *Config) {
			c.State.Backend = "redis"
			c.State.Redis.Address = ""
		}, "state.redis.address"},
		{"relative webhook url", func(c *Config) { c.Notify.Webhook.URL = "/alerts" }, "notify.webhook.url"},
		{"bad schedule", func(c *Config) { c.Sweep.Schedule = "every now and then" }, "sweep.schedule"},
		{"zero sweep concurrency", func(c *Config) { c.Sweep.Concurrency = 0 }, "sweep.concurrency"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"bad redact pattern", func(c *Config) {
			c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x", Pattern: "(["}}
		}, "telemetry.logging.redact_patterns[0].pattern"},
		{"relative metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"unsorted buckets", func(c *Config) { c.Telemetry.Metrics.LatencyBuckets = []float64{1, 0.5} }, "telemetry.metrics.latency_buckets"},
		{"listen address without port", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want ValidationError", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want field %q", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestValidate_DisabledSweepSkipsSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.Enabled = false
	cfg.Sweep.Schedule = "garbage"

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil for disabled sweep", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{"empty", ValidationError{}, "configuration validation failed"},
		{
			"single",
			ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}},
			"configuration validation failed: a: bad",
		},
		{
			"multiple",
			ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}},
			"configuration validation failed with 2 errors:\n  - a: bad\n  - b: worse\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[1].Priority = 1
	cfg.Usage.Backend = "postgres"
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("len(Errors) = %d, want 3: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "3 errors") {
		t.Errorf("Error() = %q, want error count", err.Error())
	}
}
