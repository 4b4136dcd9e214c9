package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/switchboard/pkg/provider"
)

// ErrInvalidRecord is returned when a record fails validation on append.
var ErrInvalidRecord = errors.New("invalid usage record")

// Store is the append-only log of provider invocation outcomes.
// Implementations must be safe for concurrent use and must return empty
// results, not errors, for providers or features without history.
type Store interface {
	// Append persists one record. Records are immutable once written.
	Append(ctx context.Context, rec Record) error

	// Query returns the records of a provider and feature with a timestamp at
	// or after since, ordered oldest first. An empty feature matches every
	// feature of the provider.
	Query(ctx context.Context, id provider.ID, feature string, since time.Time) ([]Record, error)

	// AggregateCost sums the cost of a provider's records at or after since.
	// Missing or unparseable costs count as zero.
	AggregateCost(ctx context.Context, id provider.ID, since time.Time) (float64, error)

	// Features returns the distinct features with records at or after
	// since, sorted by name.
	Features(ctx context.Context, since time.Time) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Record is one invocation outcome.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Provider is the provider that served the invocation.
	Provider provider.ID `json:"provider"`

	// Feature is the logical capability that was invoked (e.g. "chat").
	Feature string `json:"feature"`

	// Timestamp is when the outcome was reported.
	Timestamp time.Time `json:"timestamp"`

	// Success is true when the provider returned a usable response.
	Success bool `json:"success"`

	// Latency is the invocation latency, if measured.
	Latency *time.Duration `json:"latency,omitempty"`

	// Cost is the estimated USD cost, if known.
	Cost *float64 `json:"cost,omitempty"`

	// Error is the failure message. Only set on failure.
	Error string `json:"error,omitempty"`
}

// CostValue returns the record cost, treating an absent cost as zero.
func (r Record) CostValue() float64 {
	if r.Cost == nil {
		return 0
	}
	return *r.Cost
}

// Validate checks the record fields required for persistence.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidRecord)
	}
	if !r.Provider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidRecord, r.Provider)
	}
	if r.Feature == "" {
		return fmt.Errorf("%w: feature cannot be empty", ErrInvalidRecord)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp cannot be zero", ErrInvalidRecord)
	}
	if r.Latency != nil && *r.Latency < 0 {
		return fmt.Errorf("%w: latency cannot be negative", ErrInvalidRecord)
	}
	if r.Cost != nil && *r.Cost < 0 {
		return fmt.Errorf("%w: cost cannot be negative", ErrInvalidRecord)
	}
	return nil
}
