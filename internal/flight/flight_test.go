package flight

import (
	"errors"
	"sync"
	"testing"
)

func TestStartElectsSingleLeader(t *testing.T) {
	tb := NewTable[string, int]()

	f1, leader1 := tb.Start("k")
	if !leader1 {
		t.Fatalf("first Start must lead")
	}
	f2, leader2 := tb.Start("k")
	if leader2 {
		t.Fatalf("second Start must follow")
	}
	if f1 != f2 {
		t.Fatalf("follower got a different flight")
	}
	if got := tb.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestPublishWakesAllWaiters(t *testing.T) {
	tb := NewTable[string, int]()
	var mu sync.Mutex

	mu.Lock()
	f, _ := tb.Start("k")
	mu.Unlock()

	const waiters = 8
	var wg, joined sync.WaitGroup
	results := make([]int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		joined.Add(1)
		go func(i int) {
			defer wg.Done()
			mu.Lock()
			w, leader := tb.Start("k")
			mu.Unlock()
			joined.Done()
			if leader {
				t.Errorf("waiter %d unexpectedly led", i)
				return
			}
			<-w.Done()
			results[i], _ = w.Result()
		}(i)
	}

	// Settle only after every waiter has joined the flight; a late Start
	// would otherwise lead a fresh one.
	joined.Wait()
	mu.Lock()
	install := tb.Settle("k", f)
	mu.Unlock()
	if !install {
		t.Fatalf("untouched flight must be installable")
	}
	f.Publish(42, nil)
	wg.Wait()

	for i, v := range results {
		if v != 42 {
			t.Fatalf("waiter %d saw %d, want 42", i, v)
		}
	}
	if got := tb.Len(); got != 0 {
		t.Fatalf("Len = %d after settle, want 0", got)
	}
}

func TestPublishDeliversError(t *testing.T) {
	tb := NewTable[string, int]()
	boom := errors.New("boom")

	f, _ := tb.Start("k")
	tb.Settle("k", f)
	f.Publish(0, boom)

	<-f.Done()
	if _, err := f.Result(); !errors.Is(err, boom) {
		t.Fatalf("Result err = %v, want %v", err, boom)
	}
}

func TestDiscardBlocksInstallButNotDelivery(t *testing.T) {
	tb := NewTable[string, int]()

	f, _ := tb.Start("k")
	tb.Discard("k")

	if got := tb.Len(); got != 0 {
		t.Fatalf("Len = %d after discard, want 0", got)
	}
	if install := tb.Settle("k", f); install {
		t.Fatalf("discarded flight must not be installable")
	}

	f.Publish(7, nil)
	<-f.Done()
	if v, err := f.Result(); v != 7 || err != nil {
		t.Fatalf("Result = (%d, %v), want (7, nil)", v, err)
	}
}

func TestDiscardedKeyStartsFreshFlight(t *testing.T) {
	tb := NewTable[string, int]()

	old, _ := tb.Start("k")
	tb.Discard("k")

	fresh, leader := tb.Start("k")
	if !leader {
		t.Fatalf("post-discard Start must lead")
	}
	if fresh == old {
		t.Fatalf("post-discard Start reused the zombie flight")
	}

	// The zombie settling later must not unlink the fresh flight.
	if install := tb.Settle("k", old); install {
		t.Fatalf("zombie must stay discarded")
	}
	if got, ok := tb.m["k"]; !ok || got != fresh {
		t.Fatalf("fresh flight lost after zombie settle")
	}
}

func TestDiscardAll(t *testing.T) {
	tb := NewTable[int, string]()

	f1, _ := tb.Start(1)
	f2, _ := tb.Start(2)
	tb.DiscardAll()

	if got := tb.Len(); got != 0 {
		t.Fatalf("Len = %d after DiscardAll, want 0", got)
	}
	for i, f := range []*Flight[string]{f1, f2} {
		if install := tb.Settle(i+1, f); install {
			t.Fatalf("flight %d installable after DiscardAll", i+1)
		}
	}
}
