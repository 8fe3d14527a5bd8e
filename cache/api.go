package cache

import (
	"context"
	"time"
)

// Cache is a segmented, in-memory loading cache interface.
// All methods are safe for concurrent use by multiple goroutines.
//
// Typical complexity for operations is amortized O(1): a map lookup plus
// constant-time list adjustments under a segment lock. Loader invocations
// run outside any lock.
type Cache[K comparable, V any] interface {
	// Get returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced: one loader call,
	// one result for every waiter. A failed load returns a *LoadError
	// (errors.Is-matching ErrLoadFailure) and caches nothing.
	// Returns ErrNoLoader on miss when no Loader was configured, and
	// ErrClosed after Close.
	Get(ctx context.Context, k K) (V, error)

	// GetIfPresent returns the value for k and a presence flag. It never
	// loads and never waits for an in-flight load. On hit, the entry is
	// promoted according to the policy; expired entries read as absent.
	GetIfPresent(k K) (V, bool)

	// GetAll returns the values for keys, loading misses concurrently.
	// Duplicates are collapsed. Successfully obtained pairs are always
	// returned; per-key load failures are aggregated into the error.
	GetAll(ctx context.Context, keys []K) (map[K]V, error)

	// Refresh forces a reload of k, sharing the flight with any concurrent
	// load of the same key. On failure the previous value is kept and the
	// load error returned. Readers are served the old value while the
	// refresh is in flight.
	Refresh(ctx context.Context, k K) (V, error)

	// Put inserts or updates k->v, promotes the entry according to the
	// active policy, and synchronously evicts until the configured bound
	// holds before returning.
	Put(k K, v V)

	// PutWithTTL inserts or updates k->v with a per-entry TTL overriding
	// ExpireAfterWrite. A non-positive ttl disables write expiry for this
	// entry.
	PutWithTTL(k K, v V, ttl time.Duration)

	// PutIfAbsent inserts k->v only if no live entry exists for k.
	// Reports whether it inserted. No promotion happens when it loses.
	PutIfAbsent(k K, v V) bool

	// PutAll inserts or updates every pair in m.
	PutAll(m map[K]V)

	// Invalidate removes the entry for k if present and reports whether an
	// entry was removed. A concurrent load of k is discarded: its result
	// still reaches the goroutines already waiting on it, but it is not
	// installed into the cache.
	Invalidate(k K) bool

	// InvalidateAll removes all entries and discards all in-flight loads,
	// segment by segment.
	InvalidateAll()

	// Len returns the total number of resident entries across all segments.
	Len() int

	// Range calls f for every live entry until f returns false. The
	// entries are snapshotted first, so f may call back into the cache.
	Range(f func(k K, v V) bool)

	// Stats returns a snapshot of the cumulative counters (zeros unless
	// Options.RecordStats is set).
	Stats() Stats

	// Close marks the cache closed: loading operations return ErrClosed,
	// reads miss, writes are ignored. Close is idempotent and returns nil.
	Close() error
}
