package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Provider defaults
	DefaultAlertThreshold = 0.8

	// Budget defaults
	DefaultTimezone              = "Local"
	DefaultBudgetQueryTimeout    = 2 * time.Second
	DefaultBudgetBreakerFailures = 5
	DefaultBudgetBreakerTimeout  = 30 * time.Second

	// Alerting defaults
	DefaultErrorRateThreshold          = 0.3
	DefaultMinSamples                  = 10
	DefaultLatencyThresholdMs          = 10000
	DefaultCostThreshold               = 5.0
	DefaultConsecutiveFailureThreshold = 5
	DefaultAlertCooldown               = time.Hour
	DefaultMetricsWindow               = 24 * time.Hour

	// Usage defaults
	DefaultUsageBackend             = "sqlite"
	DefaultUsageQueryTimeout        = 5 * time.Second
	DefaultUsageRetention           = 35 * 24 * time.Hour
	DefaultSQLitePath               = "data/usage.db"
	DefaultSQLiteDriver             = "sqlite"
	DefaultSQLiteBusyTimeout        = 5 * time.Second
	DefaultSQLiteCheckpointInterval = 5 * time.Minute

	// State defaults
	DefaultStateBackend = "memory"
	DefaultRedisAddress = "localhost:6379"
	DefaultRedisPrefix  = "switchboard:"

	// Notify defaults
	DefaultWebhookTimeout     = 10 * time.Second
	DefaultAlertsPerMinute    = 30.0
	DefaultAlertBurst         = 10
	DefaultNotifyLogEnabled   = true
	DefaultDesktopNotify      = false
	DefaultSweepEnabled       = true
	DefaultSweepSchedule      = "@every 5m"
	DefaultSweepTimeout       = 2 * time.Minute
	DefaultSweepConcurrency   = 4
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultHealthCheckTimeout = 2 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "switchboard"
	DefaultMetricsSubsystem = "orchestrator"
)

// DefaultLatencyBuckets are the reported latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Default returns a configuration with every default applied and no
// providers. Loading unmarshals the file on top of it so that booleans
// which default to true can still be switched off explicitly.
func Default() *Config {
	cfg := &Config{}
	cfg.Notify.Log = DefaultNotifyLogEnabled
	cfg.Notify.Desktop.Enabled = DefaultDesktopNotify
	cfg.Sweep.Enabled = DefaultSweepEnabled
	cfg.Telemetry.Logging.RedactSecrets = DefaultRedactSecrets
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Provider defaults - applied to each provider
	for i := range cfg.Providers {
		if cfg.Providers[i].AlertThreshold == 0 {
			cfg.Providers[i].AlertThreshold = DefaultAlertThreshold
		}
	}

	// Budget defaults
	if cfg.Budget.Timezone == "" {
		cfg.Budget.Timezone = DefaultTimezone
	}
	if cfg.Budget.QueryTimeout == 0 {
		cfg.Budget.QueryTimeout = DefaultBudgetQueryTimeout
	}
	if cfg.Budget.BreakerFailures == 0 {
		cfg.Budget.BreakerFailures = DefaultBudgetBreakerFailures
	}
	if cfg.Budget.BreakerTimeout == 0 {
		cfg.Budget.BreakerTimeout = DefaultBudgetBreakerTimeout
	}

	// Alerting defaults
	if cfg.Alerting.ErrorRateThreshold == 0 {
		cfg.Alerting.ErrorRateThreshold = DefaultErrorRateThreshold
	}
	if cfg.Alerting.MinSamples == 0 {
		cfg.Alerting.MinSamples = DefaultMinSamples
	}
	if cfg.Alerting.LatencyThresholdMs == 0 {
		cfg.Alerting.LatencyThresholdMs = DefaultLatencyThresholdMs
	}
	if cfg.Alerting.CostThreshold == 0 {
		cfg.Alerting.CostThreshold = DefaultCostThreshold
	}
	if cfg.Alerting.ConsecutiveFailureThreshold == 0 {
		cfg.Alerting.ConsecutiveFailureThreshold = DefaultConsecutiveFailureThreshold
	}
	if cfg.Alerting.Cooldown == 0 {
		cfg.Alerting.Cooldown = DefaultAlertCooldown
	}
	if cfg.Alerting.MetricsWindow == 0 {
		cfg.Alerting.MetricsWindow = DefaultMetricsWindow
	}

	// Usage defaults
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.QueryTimeout == 0 {
		cfg.Usage.QueryTimeout = DefaultUsageQueryTimeout
	}
	if cfg.Usage.Retention == 0 {
		cfg.Usage.Retention = DefaultUsageRetention
	}
	if cfg.Usage.SQLite.Path == "" {
		cfg.Usage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Usage.SQLite.Driver == "" {
		cfg.Usage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Usage.SQLite.BusyTimeout == 0 {
		cfg.Usage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Usage.SQLite.CheckpointInterval == 0 {
		cfg.Usage.SQLite.CheckpointInterval = DefaultSQLiteCheckpointInterval
	}

	// State defaults
	if cfg.State.Backend == "" {
		cfg.State.Backend = DefaultStateBackend
	}
	if cfg.State.Redis.Address == "" {
		cfg.State.Redis.Address = DefaultRedisAddress
	}
	if cfg.State.Redis.Prefix == "" {
		cfg.State.Redis.Prefix = DefaultRedisPrefix
	}

	// Notify defaults
	if cfg.Notify.Webhook.Timeout == 0 {
		cfg.Notify.Webhook.Timeout = DefaultWebhookTimeout
	}
	if cfg.Notify.RateLimit.PerMinute == 0 {
		cfg.Notify.RateLimit.PerMinute = DefaultAlertsPerMinute
	}
	if cfg.Notify.RateLimit.Burst == 0 {
		cfg.Notify.RateLimit.Burst = DefaultAlertBurst
	}

	// Sweep defaults
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = DefaultSweepSchedule
	}
	if cfg.Sweep.Timeout == 0 {
		cfg.Sweep.Timeout = DefaultSweepTimeout
	}
	if cfg.Sweep.Concurrency == 0 {
		cfg.Sweep.Concurrency = DefaultSweepConcurrency
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
	if cfg.Telemetry.Health.Timeout == 0 {
		cfg.Telemetry.Health.Timeout = DefaultHealthCheckTimeout
	}
}
