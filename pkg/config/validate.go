package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/switchboard/pkg/provider"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "providers[0].priority").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateFeatures(cfg.Features, cfg.Providers)...)
	errs = append(errs, validateRouting(&cfg.Routing, cfg.Providers)...)
	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validateAlerting(&cfg.Alerting)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateState(&cfg.State)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateSweep(&cfg.Sweep)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must not be empty"})
	} else if !strings.Contains(cfg.ListenAddress, ":") {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port, got %q", cfg.ListenAddress),
		})
	}

	for field, d := range map[string]time.Duration{
		"server.read_timeout":     cfg.ReadTimeout,
		"server.write_timeout":    cfg.WriteTimeout,
		"server.idle_timeout":     cfg.IdleTimeout,
		"server.request_timeout":  cfg.RequestTimeout,
		"server.shutdown_timeout": cfg.ShutdownTimeout,
	} {
		if d < 0 {
			errs = append(errs, FieldError{Field: field, Message: "must not be negative"})
		}
	}

	return errs
}

func validateProviders(providers []ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		return []FieldError{{Field: "providers", Message: "at least one provider must be configured"}}
	}

	seenIDs := make(map[provider.ID]int)
	seenPriorities := make(map[int]string)

	for i, p := range providers {
		prefix := fmt.Sprintf("providers[%d]", i)

		id, err := provider.ParseID(p.ID)
		if err != nil {
			errs = append(errs, FieldError{Field: prefix + ".id", Message: err.Error()})
		} else if first, dup := seenIDs[id]; dup {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("provider %q already configured at providers[%d]", id, first),
			})
		} else {
			seenIDs[id] = i
		}

		if other, dup := seenPriorities[p.Priority]; dup {
			errs = append(errs, FieldError{
				Field:   prefix + ".priority",
				Message: fmt.Sprintf("priority %d already used by %q", p.Priority, other),
			})
		} else {
			seenPriorities[p.Priority] = p.ID
		}

		if p.MonthlyBudget != nil && *p.MonthlyBudget < 0 {
			errs = append(errs, FieldError{Field: prefix + ".monthly_budget", Message: "must not be negative"})
		}
		if p.DailyLimit < 0 {
			errs = append(errs, FieldError{Field: prefix + ".daily_limit", Message: "must not be negative"})
		}
		if p.AlertThreshold < 0 || p.AlertThreshold > 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".alert_threshold",
				Message: fmt.Sprintf("must be between 0 and 1, got %v", p.AlertThreshold),
			})
		}
		if p.CostPerUnit < 0 {
			errs = append(errs, FieldError{Field: prefix + ".cost_per_unit", Message: "must not be negative"})
		}
	}

	return errs
}

func validateFeatures(features map[string]FeatureConfig, providers []ProviderConfig) []FieldError {
	var errs []FieldError

	configured := configuredIDs(providers)
	for name, f := range features {
		prefix := fmt.Sprintf("features.%s", name)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{Field: "features", Message: "feature name must not be empty"})
			continue
		}
		if len(f.Providers) == 0 {
			errs = append(errs, FieldError{Field: prefix + ".providers", Message: "must list at least one provider"})
			continue
		}
		for j, raw := range f.Providers {
			field := fmt.Sprintf("%s.providers[%d]", prefix, j)
			id, err := provider.ParseID(raw)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: err.Error()})
				continue
			}
			if !configured[id] {
				errs = append(errs, FieldError{
					Field:   field,
					Message: fmt.Sprintf("provider %q is not configured", id),
				})
			}
		}
	}

	return errs
}

func validateRouting(cfg *RoutingConfig, providers []ProviderConfig) []FieldError {
	if cfg.LastResort == "" {
		return nil
	}

	id, err := provider.ParseID(cfg.LastResort)
	if err != nil {
		return []FieldError{{Field: "routing.last_resort", Message: err.Error()}}
	}
	if !configuredIDs(providers)[id] {
		return []FieldError{{
			Field:   "routing.last_resort",
			Message: fmt.Sprintf("provider %q is not configured", id),
		}}
	}
	return nil
}

func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, FieldError{
			Field:   "budget.timezone",
			Message: fmt.Sprintf("unknown time zone %q", cfg.Timezone),
		})
	}
	if cfg.QueryTimeout < 0 {
		errs = append(errs, FieldError{Field: "budget.query_timeout", Message: "must not be negative"})
	}
	if cfg.BreakerTimeout < 0 {
		errs = append(errs, FieldError{Field: "budget.breaker_timeout", Message: "must not be negative"})
	}

	return errs
}

func validateAlerting(cfg *AlertingConfig) []FieldError {
	var errs []FieldError

	if cfg.ErrorRateThreshold <= 0 || cfg.ErrorRateThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "alerting.error_rate_threshold",
			Message: fmt.Sprintf("must be greater than 0 and at most 1, got %v", cfg.ErrorRateThreshold),
		})
	}
	if cfg.MinSamples < 1 {
		errs = append(errs, FieldError{Field: "alerting.min_samples", Message: "must be at least 1"})
	}
	if cfg.LatencyThresholdMs <= 0 {
		errs = append(errs, FieldError{Field: "alerting.latency_threshold_ms", Message: "must be positive"})
	}
	if cfg.CostThreshold <= 0 {
		errs = append(errs, FieldError{Field: "alerting.cost_threshold", Message: "must be positive"})
	}
	if cfg.ConsecutiveFailureThreshold < 1 {
		errs = append(errs, FieldError{Field: "alerting.consecutive_failure_threshold", Message: "must be at least 1"})
	}
	if cfg.Cooldown < 0 {
		errs = append(errs, FieldError{Field: "alerting.cooldown", Message: "must not be negative"})
	}
	if cfg.MetricsWindow <= 0 {
		errs = append(errs, FieldError{Field: "alerting.metrics_window", Message: "must be positive"})
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "usage.sqlite.path", Message: "must not be empty for the sqlite backend"})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "usage.sqlite.driver",
				Message: fmt.Sprintf("must be one of: sqlite, sqlite3, got %q", cfg.SQLite.Driver),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("must be one of: memory, sqlite, got %q", cfg.Backend),
		})
	}

	if cfg.Retention < 0 {
		errs = append(errs, FieldError{Field: "usage.retention", Message: "must not be negative"})
	}

	return errs
}

func validateState(cfg *StateConfig) []FieldError {
	switch cfg.Backend {
	case "memory":
		return nil
	case "redis":
		var errs []FieldError
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{Field: "state.redis.address", Message: "must not be empty for the redis backend"})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "state.redis.db", Message: "must not be negative"})
		}
		return errs
	default:
		return []FieldError{{
			Field:   "state.backend",
			Message: fmt.Sprintf("must be one of: memory, redis, got %q", cfg.Backend),
		}}
	}
}

func validateNotify(cfg *NotifyConfig) []FieldError {
	var errs []FieldError

	if cfg.Webhook.URL != "" {
		u, err := url.Parse(cfg.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "notify.webhook.url",
				Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.Webhook.URL),
			})
		}
	}
	if cfg.RateLimit.PerMinute < 0 {
		errs = append(errs, FieldError{Field: "notify.rate_limit.per_minute", Message: "must not be negative"})
	}
	if cfg.RateLimit.Burst < 0 {
		errs = append(errs, FieldError{Field: "notify.rate_limit.burst", Message: "must not be negative"})
	}

	return errs
}

func validateSweep(cfg *SweepConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "sweep.schedule",
				Message: fmt.Sprintf("invalid schedule %q: %v", cfg.Schedule, err),
			})
		}
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{Field: "sweep.concurrency", Message: "must be at least 1"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "sweep.timeout", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error, got %q", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of: json, text, got %q", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		field := fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i)
		if p.Pattern == "" {
			errs = append(errs, FieldError{Field: field, Message: "must not be empty"})
		} else if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid regular expression: %v", err)})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: fmt.Sprintf("must start with '/', got %q", cfg.Metrics.Path),
			})
		}
		for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
			if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.latency_buckets",
					Message: "must be strictly increasing",
				})
				break
			}
		}
	}

	return errs
}

func configuredIDs(providers []ProviderConfig) map[provider.ID]bool {
	ids := make(map[provider.ID]bool, len(providers))
	for _, p := range providers {
		if id, err := provider.ParseID(p.ID); err == nil {
			ids[id] = true
		}
	}
	return ids
}
