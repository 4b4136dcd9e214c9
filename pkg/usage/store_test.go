package usage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/switchboard/pkg/provider"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "usage.db")
	store, err := NewSQLiteStore(SQLiteStoreConfig{
		Path:               dbPath,
		CheckpointInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store, func() { store.Close() }
}

// storeFactories lets every contract test run against each backend.
func storeFactories() map[string]func(t *testing.T) (Store, func()) {
	return map[string]func(t *testing.T) (Store, func()){
		"memory": func(t *testing.T) (Store, func()) {
			s := NewMemoryStore()
			return s, func() { s.Close() }
		},
		"sqlite": func(t *testing.T) (Store, func()) {
			return newTestSQLiteStore(t)
		},
	}
}

func newRecord(p provider.ID, feature string, ts time.Time, success bool) Record {
	return Record{
		ID:        uuid.NewString(),
		Provider:  p,
		Feature:   feature,
		Timestamp: ts,
		Success:   success,
	}
}

func withCost(r Record, cost float64) Record {
	r.Cost = &cost
	return r
}

func withLatency(r Record, d time.Duration) Record {
	r.Latency = &d
	return r
}

func TestStore_AppendAndQuery(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store, cleanup := factory(t)
			defer cleanup()

			ctx := context.Background()
			now := time.Now()

			records := []Record{
				withLatency(newRecord(provider.Groq, "chat", now.Add(-2*time.Hour), true), 120*time.Millisecond),
				newRecord(provider.Groq, "chat", now.Add(-time.Hour), false),
				newRecord(provider.Groq, "classification", now.Add(-30*time.Minute), true),
				newRecord(provider.OpenAI, "chat", now.Add(-10*time.Minute), true),
				newRecord(provider.Groq, "chat", now.Add(-48*time.Hour), true),
			}
			records[1].Error = "upstream timeout"

			for _, rec := range records {
				if err := store.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			got, err := store.Query(ctx, provider.Groq, "chat", now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Query returned %d records, want 2", len(got))
			}
			if got[0].ID != records[0].ID || got[1].ID != records[1].ID {
				t.Errorf("Query order = [%s %s], want oldest first", got[0].ID, got[1].ID)
			}
			if got[0].Latency == nil || *got[0].Latency != 120*time.Millisecond {
				t.Errorf("Latency = %v, want 120ms", got[0].Latency)
			}
			if got[1].Latency != nil {
				t.Errorf("Latency = %v, want nil", *got[1].Latency)
			}
			if got[1].Success || got[1].Error != "upstream timeout" {
				t.Errorf("failure record = %+v, want failed with error message", got[1])
			}

			all, err := store.Query(ctx, provider.Groq, "", now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Query(all features) failed: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("Query(all features) returned %d records, want 3", len(all))
			}
		})
	}
}

func TestStore_EmptyHistory(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store, cleanup := factory(t)
			defer cleanup()

			ctx := context.Background()
			got, err := store.Query(ctx, provider.Anthropic, "chat", time.Time{})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Query returned %d records, want 0", len(got))
			}

			cost, err := store.AggregateCost(ctx, provider.Anthropic, time.Time{})
			if err != nil {
				t.Fatalf("AggregateCost failed: %v", err)
			}
			if cost != 0 {
				t.Errorf("AggregateCost() = %v, want 0", cost)
			}
		})
	}
}

func TestStore_AggregateCost(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store, cleanup := factory(t)
			defer cleanup()

			ctx := context.Background()
			now := time.Now()
			records := []Record{
				withCost(newRecord(provider.OpenAI, "chat", now.Add(-time.Hour), true), 1.25),
				withCost(newRecord(provider.OpenAI, "summary", now.Add(-2*time.Hour), true), 0.75),
				newRecord(provider.OpenAI, "chat", now.Add(-3*time.Hour), false),
				withCost(newRecord(provider.OpenAI, "chat", now.Add(-72*time.Hour), true), 10),
				withCost(newRecord(provider.Anthropic, "chat", now.Add(-time.Hour), true), 3),
			}
			for _, rec := range records {
				if err := store.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			got, err := store.AggregateCost(ctx, provider.OpenAI, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("AggregateCost failed: %v", err)
			}
			if got != 2.0 {
				t.Errorf("AggregateCost() = %v, want 2.0", got)
			}
		})
	}
}

func TestStore_Features(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store, cleanup := factory(t)
			defer cleanup()

			ctx := context.Background()
			now := time.Now()
			records := []Record{
				newRecord(provider.Groq, "summarize", now.Add(-time.Hour), false),
				newRecord(provider.OpenAI, "chat", now.Add(-2*time.Hour), true),
				newRecord(provider.Groq, "chat", now.Add(-3*time.Hour), true),
				newRecord(provider.Groq, "translate", now.Add(-72*time.Hour), true),
			}
			for _, rec := range records {
				if err := store.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			got, err := store.Features(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Features failed: %v", err)
			}
			if len(got) != 2 || got[0] != "chat" || got[1] != "summarize" {
				t.Errorf("Features() = %v, want [chat summarize]", got)
			}

			empty, err := store.Features(ctx, now)
			if err != nil || len(empty) != 0 {
				t.Errorf("Features(now) = %v, %v; want none", empty, err)
			}
		})
	}
}

func TestStore_AppendRejectsInvalid(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing id", Record{Provider: provider.Groq, Feature: "chat", Timestamp: time.Now()}},
		{"unknown provider", Record{ID: "x", Provider: "cohere", Feature: "chat", Timestamp: time.Now()}},
		{"missing feature", Record{ID: "x", Provider: provider.Groq, Timestamp: time.Now()}},
		{"zero timestamp", Record{ID: "x", Provider: provider.Groq, Feature: "chat"}},
		{"negative cost", Record{ID: "x", Provider: provider.Groq, Feature: "chat", Timestamp: time.Now(), Cost: &negative}},
	}

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store, cleanup := factory(t)
			defer cleanup()

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					err := store.Append(context.Background(), tt.rec)
					if !errors.Is(err, ErrInvalidRecord) {
						t.Errorf("Append() error = %v, want ErrInvalidRecord", err)
					}
				})
			}
		})
	}
}

func TestSQLiteStore_UnparseableCostCountsAsZero(t *testing.T) {
	store, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	if err := store.Append(ctx, withCost(newRecord(provider.OpenAI, "chat", now, true), 2.5)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Rows written by other tools may carry free-form cost text.
	for i, raw := range []string{"n/a", "", "-4", "NaN"} {
		_, err := store.db.Exec(
			`INSERT INTO usage_records (id, provider, feature, ts, success, cost) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), "openai", "chat", now.Add(time.Duration(i)*time.Millisecond).UnixNano(), 1, raw,
		)
		if err != nil {
			t.Fatalf("raw insert failed: %v", err)
		}
	}

	total, err := store.AggregateCost(ctx, provider.OpenAI, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("AggregateCost failed: %v", err)
	}
	if total != 2.5 {
		t.Errorf("AggregateCost() = %v, want 2.5", total)
	}

	recs, err := store.Query(ctx, provider.OpenAI, "chat", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("Query returned %d records, want 5", len(recs))
	}
	absent := 0
	for _, r := range recs {
		if r.Cost == nil {
			absent++
		}
	}
	if absent != 4 {
		t.Errorf("records with absent cost = %d, want 4", absent)
	}
}

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()
	rec := withCost(newRecord(provider.Mistral, "chat", time.Now(), true), 0.4)

	first, err := NewSQLiteStore(SQLiteStoreConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := first.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := first.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}

	second, err := NewSQLiteStore(SQLiteStoreConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	total, err := second.AggregateCost(ctx, provider.Mistral, time.Time{})
	if err != nil {
		t.Fatalf("AggregateCost failed: %v", err)
	}
	if total != 0.4 {
		t.Errorf("AggregateCost() after reopen = %v, want 0.4", total)
	}
}

func TestSQLiteStore_Config(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteStoreConfig{}); err == nil {
		t.Error("NewSQLiteStore() with empty path succeeded, want error")
	}
	if _, err := NewSQLiteStore(SQLiteStoreConfig{Path: filepath.Join(t.TempDir(), "x.db"), Driver: "postgres"}); err == nil {
		t.Error("NewSQLiteStore() with unsupported driver succeeded, want error")
	}
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	mem := NewMemoryStore()
	defer mem.Close()
	sq, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	for _, s := range []Store{mem, sq} {
		_ = s.Append(ctx, newRecord(provider.Groq, "chat", now.Add(-40*24*time.Hour), true))
		_ = s.Append(ctx, newRecord(provider.Groq, "chat", now, true))
	}

	if removed := mem.Cleanup(now.Add(-35 * 24 * time.Hour)); removed != 1 {
		t.Errorf("MemoryStore.Cleanup() = %d, want 1", removed)
	}
	if mem.Len() != 1 {
		t.Errorf("MemoryStore.Len() = %d, want 1", mem.Len())
	}

	removed, err := sq.Cleanup(ctx, now.Add(-35*24*time.Hour))
	if err != nil {
		t.Fatalf("SQLiteStore.Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("SQLiteStore.Cleanup() = %d, want 1", removed)
	}
}

func TestMemoryStore_ConcurrentAppend(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, withCost(newRecord(provider.Groq, "chat", time.Now(), true), 0.1))
		}()
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Len() = %d, want 50", store.Len())
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Query(ctx, provider.Groq, "chat", time.Time{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Query() error = %v, want context.Canceled", err)
	}
	if _, err := store.AggregateCost(ctx, provider.Groq, time.Time{}); !errors.Is(err, context.Canceled) {
		t.Errorf("AggregateCost() error = %v, want context.Canceled", err)
	}
}
