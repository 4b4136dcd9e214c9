package config

import "time"

// Config is the root configuration structure for Switchboard.
// It contains the provider table, feature routes, budget and alerting
// settings, storage backends, notification sinks and telemetry.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Providers is the provider table. Priority ranks must be unique.
	Providers []ProviderConfig `yaml:"providers"`

	// Features restricts features to a subset of providers. Features that
	// are not listed may use every provider.
	Features map[string]FeatureConfig `yaml:"features"`

	// Routing contains selection settings.
	Routing RoutingConfig `yaml:"routing"`

	// Budget contains spend tracking settings.
	Budget BudgetConfig `yaml:"budget"`

	// Alerting contains alert thresholds.
	Alerting AlertingConfig `yaml:"alerting"`

	// Usage configures the usage log backend.
	Usage UsageConfig `yaml:"usage"`

	// State configures the failure counter and cooldown backend.
	State StateConfig `yaml:"state"`

	// Notify configures notification sinks.
	Notify NotifyConfig `yaml:"notify"`

	// Sweep configures the scheduled health sweep.
	Sweep SweepConfig `yaml:"sweep"`

	// Telemetry contains logging, metrics and health check configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds the handling of a single API request.
	// Default: 15s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig describes one AI provider.
type ProviderConfig struct {
	// ID is the provider identifier: groq, gemini, openrouter, mistral,
	// openai or anthropic.
	ID string `yaml:"id"`

	// Priority is the provider's rank; lower is preferred. Must be unique.
	Priority int `yaml:"priority"`

	// MonthlyBudget is the spend ceiling in USD. Omit for free-tier
	// providers.
	MonthlyBudget *float64 `yaml:"monthly_budget"`

	// DailyLimit is an informational request quota. It is reported but
	// never enforced.
	DailyLimit int64 `yaml:"daily_limit"`

	// AlertThreshold is the budget fraction (0-1) that raises a budget
	// warning.
	// Default: 0.8
	AlertThreshold float64 `yaml:"alert_threshold"`

	// CostPerUnit is the nominal cost of one request in USD, used when an
	// outcome is reported without a cost.
	CostPerUnit float64 `yaml:"cost_per_unit"`
}

// FeatureConfig routes a feature to a subset of providers.
type FeatureConfig struct {
	// Providers lists the provider IDs allowed for the feature. Order is
	// ignored; provider priority decides.
	Providers []string `yaml:"providers"`
}

// RoutingConfig contains selection settings.
type RoutingConfig struct {
	// LastResort names the provider used when every candidate is excluded
	// or over budget. Empty selects the least preferred paid provider.
	LastResort string `yaml:"last_resort"`
}

// BudgetConfig contains spend tracking settings.
type BudgetConfig struct {
	// Timezone defines the calendar day and month, e.g. "Europe/Berlin".
	// Default: "Local"
	Timezone string `yaml:"timezone"`

	// QueryTimeout bounds each spend query against the usage log.
	// Default: 2s
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// BreakerFailures is the number of consecutive failed spend queries
	// that opens the usage store circuit breaker.
	// Default: 5
	BreakerFailures uint32 `yaml:"breaker_failures"`

	// BreakerTimeout is how long the breaker stays open.
	// Default: 30s
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`
}

// AlertingConfig contains alert thresholds. It can be reloaded at runtime.
type AlertingConfig struct {
	// ErrorRateThreshold is the tolerated failure fraction (0-1).
	// Default: 0.3
	ErrorRateThreshold float64 `yaml:"error_rate_threshold"`

	// MinSamples is the request count below which error rate is ignored.
	// Default: 10
	MinSamples int64 `yaml:"min_samples"`

	// LatencyThresholdMs is the tolerated average latency.
	// Default: 10000
	LatencyThresholdMs float64 `yaml:"latency_threshold_ms"`

	// CostThreshold is the tolerated spend over the metrics window in USD.
	// Default: 5
	CostThreshold float64 `yaml:"cost_threshold"`

	// ConsecutiveFailureThreshold is the failure streak that alerts.
	// Default: 5
	ConsecutiveFailureThreshold int64 `yaml:"consecutive_failure_threshold"`

	// Cooldown is the minimum interval between alerts with the same key.
	// Default: 1h
	Cooldown time.Duration `yaml:"cooldown"`

	// MetricsWindow is the window alerts and the dashboard aggregate over.
	// Default: 24h
	MetricsWindow time.Duration `yaml:"metrics_window"`

	// Watch reloads the thresholds when the configuration file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// UsageConfig configures the usage log.
type UsageConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// QueryTimeout bounds metric queries.
	// Default: 5s
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// Retention is how long records are kept.
	// Default: 840h (35 days)
	Retention time.Duration `yaml:"retention"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite usage store.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed and expired
	// records are removed.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// StateConfig configures failure counters and alert cooldowns.
type StateConfig struct {
	// Backend is "memory" (per process) or "redis" (shared).
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis state store.
type RedisConfig struct {
	// Address is host:port.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password is the AUTH password. Prefer SWITCHBOARD_STATE_REDIS_PASSWORD.
	Password string `yaml:"password"`

	// DB is the database index.
	DB int `yaml:"db"`

	// Prefix namespaces every key.
	// Default: "switchboard:"
	Prefix string `yaml:"prefix"`

	// CounterTTL expires idle failure counters. Zero keeps them forever.
	CounterTTL time.Duration `yaml:"counter_ttl"`
}

// NotifyConfig configures notification sinks. Alerts go to every enabled
// sink; delivery succeeds if any sink accepts it.
type NotifyConfig struct {
	// Log writes alerts to the service log.
	// Default: true
	Log bool `yaml:"log"`

	// Desktop raises native desktop notifications.
	Desktop DesktopConfig `yaml:"desktop"`

	// Webhook posts alerts as JSON.
	Webhook WebhookConfig `yaml:"webhook"`

	// RateLimit caps the alert rate across all sinks.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DesktopConfig configures desktop notifications.
type DesktopConfig struct {
	// Enabled turns desktop notifications on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Icon is an optional icon path.
	Icon string `yaml:"icon"`
}

// WebhookConfig configures the webhook sink.
type WebhookConfig struct {
	// URL enables the webhook when set.
	URL string `yaml:"url"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds each delivery.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig configures alert rate limiting.
type RateLimitConfig struct {
	// PerMinute is the sustained alert rate. Zero disables rate limiting.
	// Default: 30
	PerMinute float64 `yaml:"per_minute"`

	// Burst is the number of alerts allowed at once.
	// Default: 10
	Burst int `yaml:"burst"`
}

// SweepConfig configures the scheduled health sweep.
type SweepConfig struct {
	// Enabled runs the sweep on Schedule while serving.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression or descriptor such as "@every 5m".
	// Default: "@every 5m"
	Schedule string `yaml:"schedule"`

	// Timeout bounds one sweep.
	// Default: 2m
	Timeout time.Duration `yaml:"timeout"`

	// Concurrency limits the provider and feature pairs checked in parallel.
	// Default: 4
	Concurrency int `yaml:"concurrency"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health configures health checks.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks provider credentials in log attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns adds custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom redaction rule.
type RedactPattern struct {
	// Name identifies the pattern.
	Name string `yaml:"name"`

	// Pattern is a regular expression.
	Pattern string `yaml:"pattern"`

	// Replacement is the replacement text; may reference capture groups.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "switchboard"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "orchestrator"
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets are histogram buckets for reported latency (seconds).
	// Default: [0.25, 0.5, 1, 2, 5, 10, 30, 60]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// HealthConfig configures health checks.
type HealthConfig struct {
	// Timeout bounds each readiness check.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`
}
