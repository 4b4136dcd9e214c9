package alerting

import (
	"context"
	"time"

	"mercator-hq/switchboard/pkg/state"
)

const cooldownPrefix = "cooldown:"

// Cooldown tracks the last alert time per key on top of a state.Store.
type Cooldown struct {
	store   state.Store
	nowFunc func() time.Time
}

// NewCooldown creates a Cooldown backed by store.
func NewCooldown(store state.Store) *Cooldown {
	return &Cooldown{store: store, nowFunc: time.Now}
}

// Acquire claims key for period and returns the claim time. It reports
// false while a previous alert on key is younger than period. Once started
// the claim completes even if ctx is cancelled.
func (c *Cooldown) Acquire(ctx context.Context, key string, period time.Duration) (time.Time, bool, error) {
	at := c.nowFunc()
	ok, err := c.store.Claim(context.WithoutCancel(ctx), cooldownPrefix+key, at, period)
	return at, ok, err
}

// Release drops the claim made at at so the next evaluation may alert
// again. A claim taken since by another caller is kept.
func (c *Cooldown) Release(ctx context.Context, key string, at time.Time) error {
	_, err := c.store.ReleaseClaim(context.WithoutCancel(ctx), cooldownPrefix+key, at)
	return err
}

// LastAlert returns when key last alerted, if it is still tracked.
func (c *Cooldown) LastAlert(ctx context.Context, key string) (time.Time, bool, error) {
	return c.store.ClaimedAt(ctx, cooldownPrefix+key)
}
