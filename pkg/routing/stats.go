package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// AtomicRoutingStats implements thread-safe routing statistics using atomic operations.
type AtomicRoutingStats struct {
	totalRequests atomic.Int64

	// requestsPerProvider and reasonCodeCount hold *atomic.Int64 values.
	requestsPerProvider sync.Map
	reasonCodeCount     sync.Map

	degradedCount   atomic.Int64
	excludedCount   atomic.Int64
	overBudgetCount atomic.Int64

	lastResetTime time.Time

	// mu protects lastResetTime
	mu sync.RWMutex
}

// NewAtomicRoutingStats creates a new atomic routing statistics tracker.
func NewAtomicRoutingStats() *AtomicRoutingStats {
	return &AtomicRoutingStats{
		lastResetTime: time.Now(),
	}
}

// Record counts a completed decision.
func (s *AtomicRoutingStats) Record(d Decision) {
	s.totalRequests.Add(1)
	increment(&s.requestsPerProvider, string(d.Provider))
	increment(&s.reasonCodeCount, string(d.Code))
	if d.Degraded {
		s.degradedCount.Add(1)
	}
}

// IncrementExcluded counts a provider skipped at the caller's request.
func (s *AtomicRoutingStats) IncrementExcluded() {
	s.excludedCount.Add(1)
}

// IncrementOverBudget counts a provider skipped for exhausted budget.
func (s *AtomicRoutingStats) IncrementOverBudget() {
	s.overBudgetCount.Add(1)
}

func increment(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func collect(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value interface{}) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Snapshot returns a point-in-time snapshot of the statistics.
func (s *AtomicRoutingStats) Snapshot() *RoutingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &RoutingStats{
		TotalRequests:       s.totalRequests.Load(),
		RequestsPerProvider: collect(&s.requestsPerProvider),
		ReasonCodeCount:     collect(&s.reasonCodeCount),
		DegradedCount:       s.degradedCount.Load(),
		ExcludedCount:       s.excludedCount.Load(),
		OverBudgetCount:     s.overBudgetCount.Load(),
		LastResetTime:       s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicRoutingStats) Reset() {
	s.totalRequests.Store(0)
	s.degradedCount.Store(0)
	s.excludedCount.Store(0)
	s.overBudgetCount.Store(0)

	s.requestsPerProvider.Range(func(key, _ interface{}) bool {
		s.requestsPerProvider.Delete(key)
		return true
	})
	s.reasonCodeCount.Range(func(key, _ interface{}) bool {
		s.reasonCodeCount.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
