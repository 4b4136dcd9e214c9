package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
	claims   map[string]time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]int64),
		claims:   make(map[string]time.Time),
	}
}

// Increment adds one to the counter at key and returns the new value.
func (m *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[key]++
	return m.counters[key], nil
}

// Get returns the counter at key.
func (m *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counters[key], nil
}

// Reset removes key from both counters and claims.
func (m *MemoryStore) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.counters, key)
	delete(m.claims, key)
	return nil
}

// Claim records now under key unless a claim younger than ttl exists.
func (m *MemoryStore) Claim(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.claims[key]; ok && now.Sub(last) < ttl {
		return false, nil
	}
	m.claims[key] = now
	return true, nil
}

// ReleaseClaim removes the claim on key if it was made at at.
func (m *MemoryStore) ReleaseClaim(ctx context.Context, key string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.claims[key]
	if !ok || !last.Equal(at) {
		return false, nil
	}
	delete(m.claims, key)
	return true, nil
}

// ClaimedAt returns the timestamp of the current claim on key.
func (m *MemoryStore) ClaimedAt(ctx context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.claims[key]
	return last, ok, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
