package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/usage"
)

// Default tracker settings.
const (
	DefaultQueryTimeout    = 2 * time.Second
	DefaultBreakerTimeout  = 30 * time.Second
	DefaultBreakerFailures = 5
)

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// QueryTimeout bounds each usage store query. The caller's context
	// deadline still applies when it is shorter.
	// Default: 2s
	QueryTimeout time.Duration

	// BreakerTimeout is how long the breaker stays open before letting a
	// probe query through.
	// Default: 30s
	BreakerTimeout time.Duration

	// BreakerFailures is the number of consecutive query failures that
	// opens the breaker.
	// Default: 5
	BreakerFailures uint32

	// Location is the time zone that defines "today" and "this month".
	// Default: time.Local
	Location *time.Location

	// Logger receives degradation warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Tracker computes per-provider spend from the usage store.
// It is safe for concurrent use.
type Tracker struct {
	store   usage.Store
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	loc     *time.Location
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewTracker creates a Tracker reading from store.
func NewTracker(store usage.Store, cfg TrackerConfig) *Tracker {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultBreakerTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger.With("component", "budget")
	failures := cfg.BreakerFailures

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "usage-store",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// A caller giving up is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("usage store breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Tracker{
		store:   store,
		breaker: breaker,
		timeout: cfg.QueryTimeout,
		loc:     cfg.Location,
		logger:  logger,
		nowFunc: cfg.Now,
	}
}

// Now returns the current time in the tracker's location.
func (t *Tracker) Now() time.Time {
	return t.nowFunc().In(t.loc)
}

// CostToday returns the provider's spend since local midnight.
func (t *Tracker) CostToday(ctx context.Context, id provider.ID) float64 {
	return t.costSince(ctx, id, StartOfDay(t.Now()), "today")
}

// CostThisMonth returns the provider's spend since the first of the month.
func (t *Tracker) CostThisMonth(ctx context.Context, id provider.ID) float64 {
	return t.costSince(ctx, id, StartOfMonth(t.Now()), "month")
}

// BreakerState reports the usage store breaker state.
func (t *Tracker) BreakerState() gobreaker.State {
	return t.breaker.State()
}

// costSince queries the store through the breaker. Any failure is logged and
// reported as zero spend.
func (t *Tracker) costSince(ctx context.Context, id provider.ID, since time.Time, window string) float64 {
	qctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result, err := t.breaker.Execute(func() (interface{}, error) {
		return t.store.AggregateCost(qctx, id, since)
	})
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			level = slog.LevelDebug
		}
		t.logger.Log(ctx, level, "spend query failed, assuming no spend",
			"provider", id,
			"window", window,
			"error", err,
		)
		return 0
	}

	return result.(float64)
}
