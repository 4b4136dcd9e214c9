package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "SWITCHBOARD_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SWITCHBOARD_SECTION_FIELD (e.g., SWITCHBOARD_SERVER_LISTEN_ADDRESS).
// A .env file next to the configuration file, if present, is loaded first;
// variables already set in the process environment take precedence over it.
//
// The loading sequence is:
// 1. Load YAML from file on top of the defaults
// 2. Load .env from the configuration directory
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Defaults again for list entries and values explicitly zeroed in the file.
	ApplyDefaults(cfg)
	return cfg, nil
}

// loadDotEnv loads the .env file beside the configuration file. A missing
// file is not an error.
func loadDotEnv(configPath string) error {
	envPath := dotEnvPath(configPath)
	if _, err := os.Stat(envPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %q: %w", envPath, err)
	}
	return nil
}

func dotEnvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format SWITCHBOARD_SECTION_FIELD. Values that
// fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Provider overrides, keyed by provider ID.
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		prefix := "PROVIDERS_" + strings.ToUpper(p.ID) + "_"
		if val, ok := lookupEnv(prefix + "MONTHLY_BUDGET"); ok {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				p.MonthlyBudget = &f
			}
		}
		envInt64(prefix+"DAILY_LIMIT", &p.DailyLimit)
		envFloat(prefix+"ALERT_THRESHOLD", &p.AlertThreshold)
		envFloat(prefix+"COST_PER_UNIT", &p.CostPerUnit)
	}

	// Routing and budget overrides
	envString("ROUTING_LAST_RESORT", &cfg.Routing.LastResort)
	envString("BUDGET_TIMEZONE", &cfg.Budget.Timezone)
	envDuration("BUDGET_QUERY_TIMEOUT", &cfg.Budget.QueryTimeout)

	// Alerting overrides
	envFloat("ALERTING_ERROR_RATE_THRESHOLD", &cfg.Alerting.ErrorRateThreshold)
	envInt64("ALERTING_MIN_SAMPLES", &cfg.Alerting.MinSamples)
	envFloat("ALERTING_LATENCY_THRESHOLD_MS", &cfg.Alerting.LatencyThresholdMs)
	envFloat("ALERTING_COST_THRESHOLD", &cfg.Alerting.CostThreshold)
	envInt64("ALERTING_CONSECUTIVE_FAILURE_THRESHOLD", &cfg.Alerting.ConsecutiveFailureThreshold)
	envDuration("ALERTING_COOLDOWN", &cfg.Alerting.Cooldown)
	envDuration("ALERTING_METRICS_WINDOW", &cfg.Alerting.MetricsWindow)
	envBool("ALERTING_WATCH", &cfg.Alerting.Watch)

	// Usage overrides
	envString("USAGE_BACKEND", &cfg.Usage.Backend)
	envDuration("USAGE_RETENTION", &cfg.Usage.Retention)
	envString("USAGE_SQLITE_PATH", &cfg.Usage.SQLite.Path)
	envString("USAGE_SQLITE_DRIVER", &cfg.Usage.SQLite.Driver)

	// State overrides
	envString("STATE_BACKEND", &cfg.State.Backend)
	envString("STATE_REDIS_ADDRESS", &cfg.State.Redis.Address)
	envString("STATE_REDIS_PASSWORD", &cfg.State.Redis.Password)
	envInt("STATE_REDIS_DB", &cfg.State.Redis.DB)
	envString("STATE_REDIS_PREFIX", &cfg.State.Redis.Prefix)

	// Notify overrides
	envBool("NOTIFY_LOG", &cfg.Notify.Log)
	envBool("NOTIFY_DESKTOP_ENABLED", &cfg.Notify.Desktop.Enabled)
	envString("NOTIFY_WEBHOOK_URL", &cfg.Notify.Webhook.URL)
	envFloat("NOTIFY_RATE_LIMIT_PER_MINUTE", &cfg.Notify.RateLimit.PerMinute)

	// Sweep overrides
	envBool("SWEEP_ENABLED", &cfg.Sweep.Enabled)
	envString("SWEEP_SCHEDULE", &cfg.Sweep.Schedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func envString(name string, dst *string) {
	if val, ok := lookupEnv(name); ok {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val, ok := lookupEnv(name); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(name string, dst *bool) {
	if val, ok := lookupEnv(name); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val, ok := lookupEnv(name); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(name string, dst *int64) {
	if val, ok := lookupEnv(name); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val, ok := lookupEnv(name); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}
