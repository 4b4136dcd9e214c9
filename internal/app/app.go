// Package app assembles the switchboard components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sony/gobreaker"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/alerting"
	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/failures"
	"mercator-hq/switchboard/pkg/notify"
	"mercator-hq/switchboard/pkg/orchestrator"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/state"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/logging"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/usage"
)

// App holds the wired components of one switchboard process.
type App struct {
	Config  *config.Config
	Service *orchestrator.Service
	Engine  *alerting.Engine
	Tracker *budget.Tracker
	Checker *health.Checker
	Metrics *metrics.Collector
	Usage   usage.Store
	State   state.Store

	logger  *slog.Logger
	closers []io.Closer
}

// NewLogger builds the process logger from the logging configuration.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	patterns := make([]logging.Pattern, len(cfg.RedactPatterns))
	for i, p := range cfg.RedactPatterns {
		patterns[i] = logging.Pattern{Name: p.Name, Pattern: p.Pattern, Replacement: p.Replacement}
	}
	return logging.New(logging.Config{
		Level:          cfg.Level,
		Format:         cfg.Format,
		AddSource:      cfg.AddSource,
		RedactSecrets:  cfg.RedactSecrets,
		RedactPatterns: patterns,
		Writer:         w,
	})
}

// Thresholds converts the alerting configuration into engine thresholds.
func Thresholds(cfg config.AlertingConfig) alerting.Thresholds {
	return alerting.Thresholds{
		ErrorRate:           cfg.ErrorRateThreshold,
		MinSamples:          cfg.MinSamples,
		LatencyMs:           cfg.LatencyThresholdMs,
		CostUSD:             cfg.CostThreshold,
		ConsecutiveFailures: cfg.ConsecutiveFailureThreshold,
		Cooldown:            cfg.Cooldown,
		Window:              cfg.MetricsWindow,
	}
}

// New wires every component described by cfg. On error, anything already
// opened is closed.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger.With("component", "app")}
	if err := a.build(cfg, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config, logger *slog.Logger) error {
	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("invalid provider configuration: %w", err)
	}
	loc, err := cfg.Budget.Location()
	if err != nil {
		return err
	}

	if a.Usage, err = openUsage(cfg, logger); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Usage)

	if a.State, err = openState(cfg.State); err != nil {
		return err
	}
	a.closers = append(a.closers, a.State)

	a.Tracker = budget.NewTracker(a.Usage, budget.TrackerConfig{
		QueryTimeout:    cfg.Budget.QueryTimeout,
		BreakerTimeout:  cfg.Budget.BreakerTimeout,
		BreakerFailures: cfg.Budget.BreakerFailures,
		Location:        loc,
		Logger:          logger,
	})
	evaluator := budget.NewEvaluator(a.Tracker)
	failureTracker := failures.NewTracker(a.State, logger)
	aggregator := aggregate.NewAggregator(a.Usage, aggregate.Config{
		QueryTimeout: cfg.Usage.QueryTimeout,
		Concurrency:  cfg.Sweep.Concurrency,
		Logger:       logger,
	})

	sink, err := buildSink(cfg.Notify, logger)
	if err != nil {
		return err
	}

	thresholds := Thresholds(cfg.Alerting)
	if err := thresholds.Validate(); err != nil {
		return err
	}
	a.Engine = alerting.NewEngine(alerting.Config{
		Metrics:    aggregator,
		Failures:   failureTracker,
		Budget:     evaluator,
		Sink:       sink,
		Cooldown:   alerting.NewCooldown(a.State),
		Thresholds: &thresholds,
		Logger:     logger,
	})

	if cfg.Telemetry.Metrics.Enabled {
		a.Metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	a.Service, err = orchestrator.New(orchestrator.Config{
		Registry:         registry,
		Selector:         routing.NewSelector(registry, evaluator, logger),
		Store:            a.Usage,
		Failures:         failureTracker,
		Aggregator:       aggregator,
		Alerts:           a.Engine,
		Budget:           evaluator,
		Metrics:          a.Metrics,
		SweepConcurrency: cfg.Sweep.Concurrency,
		SweepTimeout:     cfg.Sweep.Timeout,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	a.Checker = health.New(cfg.Telemetry.Health.Timeout)
	a.Checker.RegisterCheck("usage_store", health.PingCheck(a.Usage))
	a.Checker.RegisterCheck("state_store", health.PingCheck(a.State))
	a.Checker.RegisterAdvisoryCheck("spend_breaker", func(context.Context) error {
		if a.Tracker.BreakerState() == gobreaker.StateOpen {
			return errors.New("usage store breaker open, spend reported as zero")
		}
		return nil
	})

	a.logger.Info("switchboard assembled",
		"providers", len(registry.Providers()),
		"features", len(registry.Features()),
		"usage_backend", cfg.Usage.Backend,
		"state_backend", cfg.State.Backend,
		"metrics", a.Metrics != nil,
	)
	return nil
}

// ApplyConfig pushes the reloadable settings of cfg into the running
// components. Only alert thresholds are reloadable; provider, storage and
// server changes require a restart.
func (a *App) ApplyConfig(cfg *config.Config) error {
	t := Thresholds(cfg.Alerting)
	if err := a.Engine.SetThresholds(t); err != nil {
		return err
	}
	a.Config = cfg
	return nil
}

// Close releases the stores in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openUsage(cfg *config.Config, logger *slog.Logger) (usage.Store, error) {
	switch cfg.Usage.Backend {
	case "memory":
		return usage.NewMemoryStoreWithConfig(usage.MemoryStoreConfig{Retention: cfg.Usage.Retention}), nil
	case "sqlite":
		store, err := usage.NewSQLiteStore(usage.SQLiteStoreConfig{
			Path:               cfg.Usage.SQLite.Path,
			Driver:             cfg.Usage.SQLite.Driver,
			BusyTimeout:        cfg.Usage.SQLite.BusyTimeout,
			CheckpointInterval: cfg.Usage.SQLite.CheckpointInterval,
			Retention:          cfg.Usage.Retention,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open usage store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported usage backend %q", cfg.Usage.Backend)
	}
}

func openState(cfg config.StateConfig) (state.Store, error) {
	switch cfg.Backend {
	case "memory":
		return state.NewMemoryStore(), nil
	case "redis":
		store, err := state.NewRedisStore(state.RedisConfig{
			Addr:       cfg.Redis.Address,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			CounterTTL: cfg.Redis.CounterTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported state backend %q", cfg.Backend)
	}
}

// buildSink combines the enabled sinks and applies the rate limit.
func buildSink(cfg config.NotifyConfig, logger *slog.Logger) (notify.Sink, error) {
	var sinks []notify.Sink
	if cfg.Log {
		sinks = append(sinks, notify.NewLogSink(logger))
	}
	if cfg.Desktop.Enabled {
		sinks = append(sinks, notify.NewDesktopSink(cfg.Desktop.Icon))
	}
	if cfg.Webhook.URL != "" {
		webhook, err := notify.NewWebhookSink(notify.WebhookConfig{
			URL:     cfg.Webhook.URL,
			Headers: cfg.Webhook.Headers,
			Timeout: cfg.Webhook.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid webhook sink: %w", err)
		}
		sinks = append(sinks, webhook)
	}
	if len(sinks) == 0 {
		logger.Warn("no notification sinks enabled, alerts will only be counted")
	}

	var sink notify.Sink = notify.NewMultiSink(logger, sinks...)
	if cfg.RateLimit.PerMinute > 0 {
		sink = notify.NewRateLimitedSink(sink, cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}
	return sink, nil
}
