package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/switchboard/pkg/provider"
)

// MemoryStore implements Store with an in-process slice.
// All records are lost when the process exits.
//
// MemoryStore is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryStore struct {
	// records is kept in append order.
	records []Record

	mu sync.RWMutex

	retention       time.Duration
	cleanupInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// Retention is how long records are kept. It must cover at least one
	// calendar month for monthly budgets to be correct.
	// Default: 35 days
	Retention time.Duration

	// CleanupInterval is how often expired records are dropped.
	// Default: 1 hour
	CleanupInterval time.Duration
}

// NewMemoryStore creates an in-memory store with default settings.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates an in-memory store with custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.Retention == 0 {
		cfg.Retention = 35 * 24 * time.Hour
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &MemoryStore{
		retention:       cfg.Retention,
		cleanupInterval: cfg.CleanupInterval,
		done:            make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Append persists one record.
func (s *MemoryStore) Append(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

// Query returns matching records ordered oldest first.
func (s *MemoryStore) Query(ctx context.Context, id provider.ID, feature string, since time.Time) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []Record
	for _, rec := range s.records {
		if rec.Provider != id || rec.Timestamp.Before(since) {
			continue
		}
		if feature != "" && rec.Feature != feature {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	// Reported timestamps may arrive slightly out of order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

// AggregateCost sums the cost of a provider's records since the given time.
func (s *MemoryStore) AggregateCost(ctx context.Context, id provider.ID, since time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, rec := range s.records {
		if rec.Provider == id && !rec.Timestamp.Before(since) {
			total += rec.CostValue()
		}
	}
	return total, nil
}

// Features returns the distinct features recorded since the given time.
func (s *MemoryStore) Features(ctx context.Context, since time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, rec := range s.records {
		if !rec.Timestamp.Before(since) {
			seen[rec.Feature] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// Ping always succeeds for the memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Cleanup drops records older than the given time and returns how many were removed.
func (s *MemoryStore) Cleanup(olderThan time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.Timestamp.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the cleanup goroutine. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// cleanupLoop runs periodic cleanup of expired records.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup(time.Now().Add(-s.retention))
		case <-s.done:
			return
		}
	}
}
