package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// One miss then one hit on the same key must count exactly one of each.
func TestStats_MissThenHit(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[string, int]{MaximumSize: 8, RecordStats: true})

	if _, ok := c.GetIfPresent("k"); ok {
		t.Fatal("unexpected hit")
	}
	c.Put("k", 1)
	if _, ok := c.GetIfPresent("k"); !ok {
		t.Fatal("expected hit")
	}

	st := c.Stats()
	if st.Misses != 1 || st.Hits != 1 {
		t.Fatalf("stats = %+v, want 1 miss and 1 hit", st)
	}
	if st.Requests() != 2 {
		t.Fatalf("Requests = %d, want 2", st.Requests())
	}
	if st.HitRate() != 0.5 || st.MissRate() != 0.5 {
		t.Fatalf("rates = %v/%v, want 0.5/0.5", st.HitRate(), st.MissRate())
	}
}

// Load counters and timing are driven by the injected clock: the loader
// advances it, so TotalLoadTime is exact.
func TestStats_LoadCounters(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	fail := false
	c := newCache(t, Options[string, string]{
		MaximumSize: 8,
		RecordStats: true,
		Clock:       clk,
		Loader: func(_ context.Context, k string) (string, error) {
			if fail {
				clk.add(3 * time.Millisecond)
				return "", errors.New("nope")
			}
			clk.add(5 * time.Millisecond)
			return "v:" + k, nil
		},
	})

	if _, err := c.Get(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	fail = true
	if _, err := c.Get(context.Background(), "b"); err == nil {
		t.Fatal("expected load failure")
	}

	st := c.Stats()
	if st.LoadSuccesses != 1 || st.LoadFailures != 1 {
		t.Fatalf("loads = %d/%d, want 1/1", st.LoadSuccesses, st.LoadFailures)
	}
	if st.LoadCount() != 2 {
		t.Fatalf("LoadCount = %d, want 2", st.LoadCount())
	}
	if st.TotalLoadTime != 8*time.Millisecond {
		t.Fatalf("TotalLoadTime = %v, want 8ms", st.TotalLoadTime)
	}
	if st.AverageLoadPenalty() != 4*time.Millisecond {
		t.Fatalf("AverageLoadPenalty = %v, want 4ms", st.AverageLoadPenalty())
	}
	// The loading get counts one miss per load attempt, no hidden hits.
	if st.Misses != 2 || st.Hits != 0 {
		t.Fatalf("stats = %+v, want 2 misses and 0 hits", st)
	}
}

// Evictions count size and expiry removals; invalidation and replacement
// are excluded.
func TestStats_Evictions(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := newCache(t, Options[string, int]{
		MaximumSize:      2,
		ConcurrencyLevel: 1,
		RecordStats:      true,
		Clock:            clk,
	})

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // size eviction of a

	c.PutWithTTL("t", 4, 10*time.Millisecond) // size eviction of b
	clk.add(20 * time.Millisecond)
	c.GetIfPresent("t") // lazy expiry eviction

	c.Put("x", 5)
	c.Put("x", 6)     // replacement, not an eviction
	c.Invalidate("x") // explicit, not an eviction

	st := c.Stats()
	if st.Evictions != 3 {
		t.Fatalf("Evictions = %d, want 3 (two size, one expired)", st.Evictions)
	}
}

// With RecordStats off, all counters read zero regardless of activity.
func TestStats_DisabledReadsZero(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[string, int]{
		MaximumSize:      2,
		ConcurrencyLevel: 1,
		Loader: func(_ context.Context, _ string) (int, error) {
			return 42, nil
		},
	})

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.GetIfPresent("a")
	c.GetIfPresent("zzz")
	if _, err := c.Get(context.Background(), "load-me"); err != nil {
		t.Fatal(err)
	}

	if st := c.Stats(); st != (Stats{}) {
		t.Fatalf("stats must read zero when disabled, got %+v", st)
	}
}

// Rates on an untouched cache: hit rate 1.0, miss rate 0.0, zero penalty.
func TestStats_EmptyRates(t *testing.T) {
	t.Parallel()

	var st Stats
	if st.HitRate() != 1.0 {
		t.Fatalf("empty HitRate = %v, want 1.0", st.HitRate())
	}
	if st.MissRate() != 0.0 {
		t.Fatalf("empty MissRate = %v, want 0.0", st.MissRate())
	}
	if st.AverageLoadPenalty() != 0 {
		t.Fatalf("empty AverageLoadPenalty = %v, want 0", st.AverageLoadPenalty())
	}
}
