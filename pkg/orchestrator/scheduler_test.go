package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// countingSweeper counts sweeps and returns err from each.
type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) RunHealthSweep(context.Context) (SweepReport, error) {
	s.calls.Add(1)
	return SweepReport{}, s.err
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestScheduler_EmptySchedule(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "", nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true, want false for empty schedule")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() != nil for empty schedule")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "every five minutes", nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want invalid schedule error")
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}

func TestScheduler_RunsSweeps(t *testing.T) {
	sweeper := &countingSweeper{err: ErrSweepInProgress}
	s := NewScheduler(sweeper, "@every 1s", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if !s.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want already running")
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("NextRun() = nil while running")
	}
	if d := time.Until(*next); d > 2*time.Second {
		t.Errorf("NextRun() is %v away, want within the schedule interval", d)
	}

	if !waitFor(t, 3*time.Second, func() bool { return sweeper.calls.Load() > 0 }) {
		t.Error("no sweep ran within 3s")
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "@hourly", nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()
	if !waitFor(t, time.Second, func() bool { return !s.IsRunning() }) {
		t.Error("scheduler still running after context cancellation")
	}

	// Stop after the context already stopped it is a no-op.
	s.Stop()
}
