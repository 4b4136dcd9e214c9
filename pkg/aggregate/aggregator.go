package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/usage"
)

// Default aggregator settings.
const (
	DefaultWindow       = 24 * time.Hour
	DefaultQueryTimeout = 5 * time.Second
	DefaultConcurrency  = 4
)

// Config configures an Aggregator.
type Config struct {
	// QueryTimeout bounds each usage store query.
	// Default: 5s
	QueryTimeout time.Duration

	// Concurrency limits parallel queries when building a dashboard.
	// Default: 4
	Concurrency int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Aggregator computes Metrics from a usage store.
type Aggregator struct {
	store       usage.Store
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	nowFunc     func() time.Time
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store usage.Store, cfg Config) *Aggregator {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		store:       store,
		timeout:     cfg.QueryTimeout,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger.With("component", "aggregate"),
		nowFunc:     cfg.Now,
	}
}

// MetricsFor returns the metrics of one provider and feature over the
// trailing window. A non-positive window uses DefaultWindow.
func (a *Aggregator) MetricsFor(ctx context.Context, id provider.ID, feature string, window time.Duration) Metrics {
	if window <= 0 {
		window = DefaultWindow
	}

	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	since := a.nowFunc().Add(-window)
	records, err := a.store.Query(qctx, id, feature, since)
	if err != nil {
		a.logger.Warn("usage query failed, reporting empty metrics",
			"provider", id,
			"feature", feature,
			"error", err,
		)
		records = nil
	}

	return Compute(string(id), feature, records)
}

// Dashboard is an operator view of provider quality.
type Dashboard struct {
	Overall    Metrics            `json:"overall"`
	ByFeature  map[string]Metrics `json:"by_feature"`
	ByProvider map[string]Metrics `json:"by_provider"`

	// Pairs holds the metrics of every provider and feature combination,
	// ordered by provider then feature.
	Pairs []Metrics `json:"pairs"`

	GeneratedAt time.Time     `json:"generated_at"`
	Window      time.Duration `json:"window"`
}

// Dashboard computes metrics for every provider and feature pair over the
// window and rolls them up.
func (a *Aggregator) Dashboard(ctx context.Context, ids []provider.ID, features []string, window time.Duration) Dashboard {
	if window <= 0 {
		window = DefaultWindow
	}

	pairs := make([]Metrics, len(ids)*len(features))

	// errgroup only bounds concurrency here; MetricsFor never fails.
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		for j, feature := range features {
			idx := i*len(features) + j
			g.Go(func() error {
				pairs[idx] = a.MetricsFor(ctx, id, feature, window)
				return nil
			})
		}
	}
	_ = g.Wait()

	return Rollup(pairs, window, a.nowFunc())
}

// Rollup groups pair metrics into a Dashboard.
func Rollup(pairs []Metrics, window time.Duration, now time.Time) Dashboard {
	byFeature := make(map[string][]Metrics)
	byProvider := make(map[string][]Metrics)
	for _, m := range pairs {
		byFeature[m.Feature] = append(byFeature[m.Feature], m)
		byProvider[m.Provider] = append(byProvider[m.Provider], m)
	}

	d := Dashboard{
		Overall:     Combine(All, All, pairs),
		ByFeature:   make(map[string]Metrics, len(byFeature)),
		ByProvider:  make(map[string]Metrics, len(byProvider)),
		Pairs:       sortedPairs(pairs),
		GeneratedAt: now,
		Window:      window,
	}
	for feature, parts := range byFeature {
		d.ByFeature[feature] = Combine(All, feature, parts)
	}
	for name, parts := range byProvider {
		d.ByProvider[name] = Combine(name, All, parts)
	}
	return d
}

func sortedPairs(pairs []Metrics) []Metrics {
	out := make([]Metrics, len(pairs))
	copy(out, pairs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
