// Package state provides the small atomic key-value contract behind the
// consecutive-failure counters and alert cooldowns.
//
// A single instance uses MemoryStore. Multi-instance deployments use
// RedisStore so that every instance sees the same counters and cooldowns.
package state

import (
	"context"
	"time"
)

// Store is an atomic per-key counter and claim store.
// Every method must be atomic with respect to concurrent calls on the same key.
type Store interface {
	// Increment adds one to the counter at key (creating it at zero) and
	// returns the new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Get returns the counter at key, or zero if absent.
	Get(ctx context.Context, key string) (int64, error)

	// Reset removes key.
	Reset(ctx context.Context, key string) error

	// Claim stores now under key if the key is absent or its stored
	// timestamp is older than ttl, and reports whether the claim succeeded.
	// A successful claim expires after ttl.
	Claim(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error)

	// ReleaseClaim removes key only while it still holds the claim made at
	// at, and reports whether it did. A newer claim is left in place.
	ReleaseClaim(ctx context.Context, key string, at time.Time) (bool, error)

	// ClaimedAt returns the timestamp of the current claim on key, if any.
	ClaimedAt(ctx context.Context, key string) (time.Time, bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
