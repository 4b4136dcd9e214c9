// Package failures counts consecutive invocation failures per provider and
// feature pair.
package failures

import (
	"context"
	"log/slog"

	"mercator-hq/switchboard/pkg/provider"
	"mercator-hq/switchboard/pkg/state"
)

// Tracker maintains consecutive-failure counters on top of a state.Store.
//
// A counter is created on the first failure of a pair, incremented on each
// further failure and removed on the first success. Mutations run detached
// from the caller's cancellation so that a counter update, once started, is
// never abandoned half way.
type Tracker struct {
	store  state.Store
	logger *slog.Logger
}

// NewTracker creates a Tracker on the given store.
func NewTracker(store state.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		logger: logger.With("component", "failures"),
	}
}

// Key returns the state key for a provider and feature.
func Key(id provider.ID, feature string) string {
	return "failures:" + string(id) + ":" + feature
}

// RecordFailure increments the pair's counter and returns the new count.
// If the store is unreachable the failure is logged and zero is returned.
func (t *Tracker) RecordFailure(ctx context.Context, id provider.ID, feature string) int64 {
	n, err := t.store.Increment(context.WithoutCancel(ctx), Key(id, feature))
	if err != nil {
		t.logger.WarnContext(ctx, "failed to record provider failure",
			"provider", id,
			"feature", feature,
			"error", err,
		)
		return 0
	}
	return n
}

// RecordSuccess clears the pair's counter.
func (t *Tracker) RecordSuccess(ctx context.Context, id provider.ID, feature string) {
	if err := t.store.Reset(context.WithoutCancel(ctx), Key(id, feature)); err != nil {
		t.logger.WarnContext(ctx, "failed to reset failure counter",
			"provider", id,
			"feature", feature,
			"error", err,
		)
	}
}

// Count returns the pair's current consecutive-failure count.
// Store errors are logged and reported as zero.
func (t *Tracker) Count(ctx context.Context, id provider.ID, feature string) int64 {
	n, err := t.store.Get(ctx, Key(id, feature))
	if err != nil {
		t.logger.WarnContext(ctx, "failed to read failure counter",
			"provider", id,
			"feature", feature,
			"error", err,
		)
		return 0
	}
	return n
}
