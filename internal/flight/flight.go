// Package flight tracks in-flight loads, one per key, so that concurrent
// lookups for the same absent key share a single loader invocation.
//
// A Flight is the placeholder that stands in for a missing entry while its
// value is being computed. The first goroutine to call Table.Start for a key
// becomes the leader and runs the load; followers obtain the same Flight and
// wait on Done. Publishing (val, err) happens-before close(done), so reads
// after <-Done() observe the final values.
//
// Unlike a free-standing singleflight group, a Table does no locking of its
// own: the owning segment calls every Table method under its lock, which
// makes "absent in the map, join or start a flight" one atomic decision.
// That is also what lets an invalidation discard a racing load: Discard and
// DiscardAll unlink the placeholder and mark it, and the leader checks the
// mark in Settle before installing the result.
package flight

// Flight is a single in-flight load for one key.
type Flight[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error

	// discarded is set when the key was overwritten or invalidated while
	// the load was running. Guarded by the owning segment's lock, as is
	// every Table method that touches it.
	discarded bool
}

// Done returns the channel closed once the result is published.
func (f *Flight[V]) Done() <-chan struct{} { return f.done }

// Result returns the published value and error.
// Valid only after Done() is closed.
func (f *Flight[V]) Result() (V, error) { return f.val, f.err }

// Publish records the load outcome and wakes all waiters. Call exactly once,
// after the flight has been settled in the table.
func (f *Flight[V]) Publish(v V, err error) {
	f.val = v
	f.err = err
	close(f.done)
}

// Table maps keys to their in-flight loads. Zero entries per key at rest,
// exactly one while a load is running. Not safe for direct concurrent use;
// the caller provides the synchronization.
type Table[K comparable, V any] struct {
	m map[K]*Flight[V]
}

// NewTable returns an empty flight table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{m: make(map[K]*Flight[V])}
}

// Start returns the flight for k, creating one if none is in progress.
// The boolean reports leadership: true means the caller created the flight
// and must run the load and eventually Settle and Publish it.
func (t *Table[K, V]) Start(k K) (*Flight[V], bool) {
	if f, ok := t.m[k]; ok {
		return f, false
	}
	f := &Flight[V]{done: make(chan struct{})}
	t.m[k] = f
	return f, true
}

// Settle unlinks f from the table if it is still the flight registered for k
// and reports whether its result may be installed. A false return means the
// key was invalidated or overwritten while the load ran (or the flight was
// superseded by a newer one), so the result must only be delivered to
// waiters, never stored.
func (t *Table[K, V]) Settle(k K, f *Flight[V]) bool {
	if cur, ok := t.m[k]; ok && cur == f {
		delete(t.m, k)
	}
	return !f.discarded
}

// Discard unlinks and marks the flight for k, if any. Subsequent lookups for
// k start a fresh load; the zombie flight still completes and delivers its
// result to the waiters already attached to it.
func (t *Table[K, V]) Discard(k K) {
	if f, ok := t.m[k]; ok {
		f.discarded = true
		delete(t.m, k)
	}
}

// DiscardAll unlinks and marks every in-flight load.
func (t *Table[K, V]) DiscardAll() {
	for k, f := range t.m {
		f.discarded = true
		delete(t.m, k)
	}
}

// Len returns the number of loads currently in flight.
func (t *Table[K, V]) Len() int { return len(t.m) }
