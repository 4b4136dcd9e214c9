package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/switchboard/pkg/aggregate"
	"mercator-hq/switchboard/pkg/alerting"
	"mercator-hq/switchboard/pkg/budget"
	"mercator-hq/switchboard/pkg/failures"
	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/usage"
)

var (
	// ErrInvalidOutcome is returned when a reported outcome cannot be recorded.
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrSweepInProgress is returned when a health sweep is requested while
	// another one is still running.
	ErrSweepInProgress = errors.New("health sweep already in progress")
)

// Outcome is the result of one provider invocation as reported by a caller.
type Outcome struct {
	Provider provider.ID `json:"provider"`
	Feature  string      `json:"feature"`
	Success  bool        `json:"success"`

	// Latency is the measured invocation latency, if any.
	Latency *time.Duration `json:"latency,omitempty"`

	// Cost is the invocation cost in USD, if known. When absent on a
	// successful outcome the provider's nominal cost per unit is recorded.
	Cost *float64 `json:"cost,omitempty"`

	// Error describes the failure. Ignored on success.
	Error string `json:"error,omitempty"`
}

// Config wires a Service. Registry, Selector, Store, Failures, Aggregator,
// Alerts and Budget are required.
type Config struct {
	Registry   *provider.Registry
	Selector   *routing.Selector
	Store      usage.Store
	Failures   *failures.Tracker
	Aggregator *aggregate.Aggregator
	Alerts     *alerting.Engine
	Budget     *budget.Evaluator

	// Metrics is optional.
	Metrics *metrics.Collector

	// SweepConcurrency limits the pairs evaluated in parallel.
	// Default: 4
	SweepConcurrency int

	// SweepTimeout bounds one sweep. Zero means no limit beyond the
	// caller's context.
	SweepTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service is the orchestration core. It exposes provider selection, outcome
// reporting, health sweeps and the dashboard. It is safe for concurrent use.
type Service struct {
	registry   *provider.Registry
	selector   *routing.Selector
	store      usage.Store
	failures   *failures.Tracker
	aggregator *aggregate.Aggregator
	alerts     *alerting.Engine
	budget     *budget.Evaluator
	metrics    *metrics.Collector

	sweepConcurrency int
	sweepTimeout     time.Duration
	sweeping         atomic.Bool

	mu        sync.RWMutex
	lastSweep *SweepReport

	// reported holds every feature an outcome was reported for.
	featuresMu sync.Mutex
	reported   map[string]struct{}

	logger  *slog.Logger
	nowFunc func() time.Time
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	var missing []string
	if cfg.Registry == nil {
		missing = append(missing, "registry")
	}
	if cfg.Selector == nil {
		missing = append(missing, "selector")
	}
	if cfg.Store == nil {
		missing = append(missing, "usage store")
	}
	if cfg.Failures == nil {
		missing = append(missing, "failure tracker")
	}
	if cfg.Aggregator == nil {
		missing = append(missing, "aggregator")
	}
	if cfg.Alerts == nil {
		missing = append(missing, "alert engine")
	}
	if cfg.Budget == nil {
		missing = append(missing, "budget evaluator")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("orchestrator: missing %s", strings.Join(missing, ", "))
	}

	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = aggregate.DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		registry:         cfg.Registry,
		selector:         cfg.Selector,
		store:            cfg.Store,
		failures:         cfg.Failures,
		aggregator:       cfg.Aggregator,
		alerts:           cfg.Alerts,
		budget:           cfg.Budget,
		metrics:          cfg.Metrics,
		sweepConcurrency: cfg.SweepConcurrency,
		sweepTimeout:     cfg.SweepTimeout,
		reported:         make(map[string]struct{}),
		logger:           cfg.Logger.With("component", "orchestrator"),
		nowFunc:          cfg.Now,
	}, nil
}

// SelectProvider chooses a provider for feature, skipping excluded ones.
// It always returns a decision.
func (s *Service) SelectProvider(ctx context.Context, feature string, excluded []provider.ID) routing.Decision {
	d := s.selector.Select(ctx, feature, excluded)

	if s.metrics != nil {
		s.metrics.RecordSelection(d.Feature, string(d.Provider), string(d.Code), d.Degraded)
		for _, skip := range d.Skipped {
			s.metrics.RecordSkip(string(skip.Provider), skip.Cause())
		}
	}

	return d
}

// ReportOutcome records an invocation outcome in the usage log and updates
// the pair's consecutive failure counter.
//
// The failure counter is updated even when the usage log rejects or fails
// to store the record; the store error is logged and returned.
func (s *Service) ReportOutcome(ctx context.Context, o Outcome) error {
	cfg, ok := s.registry.Lookup(o.Provider)
	if !ok {
		return fmt.Errorf("%w: provider %q is not configured", ErrInvalidOutcome, o.Provider)
	}
	if o.Feature == "" {
		o.Feature = provider.DefaultFeature
	}
	if o.Latency != nil && *o.Latency < 0 {
		return fmt.Errorf("%w: negative latency", ErrInvalidOutcome)
	}
	if o.Cost != nil && *o.Cost < 0 {
		return fmt.Errorf("%w: negative cost", ErrInvalidOutcome)
	}

	s.featuresMu.Lock()
	s.reported[o.Feature] = struct{}{}
	s.featuresMu.Unlock()

	rec := usage.Record{
		ID:        uuid.NewString(),
		Provider:  o.Provider,
		Feature:   o.Feature,
		Timestamp: s.nowFunc(),
		Success:   o.Success,
		Latency:   o.Latency,
		Cost:      o.Cost,
	}
	if !o.Success {
		rec.Error = o.Error
	}
	if rec.Cost == nil && o.Success && cfg.CostPerUnit > 0 {
		nominal := cfg.CostPerUnit
		rec.Cost = &nominal
	}

	appendErr := s.store.Append(ctx, rec)
	if appendErr != nil {
		s.logger.WarnContext(ctx, "failed to append usage record",
			"provider", o.Provider,
			"feature", o.Feature,
			"error", appendErr,
		)
	}

	var streak int64
	if o.Success {
		s.failures.RecordSuccess(ctx, o.Provider, o.Feature)
	} else {
		streak = s.failures.RecordFailure(ctx, o.Provider, o.Feature)
		s.logger.DebugContext(ctx, "provider failure recorded",
			"provider", o.Provider,
			"feature", o.Feature,
			"consecutive_failures", streak,
		)
	}

	if s.metrics != nil {
		var latency time.Duration
		if o.Latency != nil {
			latency = *o.Latency
		}
		s.metrics.RecordOutcome(string(o.Provider), o.Feature, o.Success, latency, rec.CostValue())
		s.metrics.UpdateConsecutiveFailures(string(o.Provider), o.Feature, streak)
	}

	if appendErr != nil {
		return fmt.Errorf("failed to record usage: %w", appendErr)
	}
	return nil
}

// Dashboard is the operator view returned by the service.
type Dashboard struct {
	aggregate.Dashboard

	// Budgets holds the current status of every provider in priority order.
	Budgets []budget.Status `json:"budgets"`

	// Routing holds selection statistics since the service started.
	Routing *routing.RoutingStats `json:"routing"`

	// LastSweep summarises the most recent health sweep, if any.
	LastSweep *SweepSummary `json:"last_sweep,omitempty"`
}

// Dashboard builds the read-only aggregate view over the alerting window.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	providers := s.registry.Providers()
	ids := make([]provider.ID, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}

	window := s.alerts.Thresholds().Window
	d := Dashboard{
		Dashboard: s.aggregator.Dashboard(ctx, ids, s.features(ctx, window), window),
		Budgets:   make([]budget.Status, 0, len(providers)),
		Routing:   s.selector.Stats(),
	}
	for _, p := range providers {
		d.Budgets = append(d.Budgets, s.budget.Evaluate(ctx, p))
	}

	if last := s.LastSweep(); last != nil {
		summary := last.Summary()
		d.LastSweep = &summary
	}

	return d
}

// features returns the features the sweep and dashboard cover. Unlisted
// features route to every provider, so the set also takes in the default
// feature, features reported to this process and any feature found in the
// usage log within window.
func (s *Service) features(ctx context.Context, window time.Duration) []string {
	set := map[string]struct{}{provider.DefaultFeature: {}}
	for _, f := range s.registry.Features() {
		set[f] = struct{}{}
	}

	s.featuresMu.Lock()
	for f := range s.reported {
		set[f] = struct{}{}
	}
	s.featuresMu.Unlock()

	if window <= 0 {
		window = aggregate.DefaultWindow
	}
	logged, err := s.store.Features(ctx, s.nowFunc().Add(-window))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list features from usage log", "error", err)
	}
	for _, f := range logged {
		set[f] = struct{}{}
	}

	return slices.Sorted(maps.Keys(set))
}

// Registry returns the provider registry the service routes over.
func (s *Service) Registry() *provider.Registry {
	return s.registry
}
