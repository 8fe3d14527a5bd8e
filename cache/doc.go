// Package cache provides a fast, generic, segmented in-memory loading cache
// with a bounded size, pluggable eviction policies (LRU by default),
// optional time-based expiry, coalesced loading, statistics, and lightweight
// metrics hooks.
//
// # Design
//
//   - Concurrency: the cache is split into segments, each protected by an
//     RWMutex. The segment count derives from ConcurrencyLevel (or a
//     GOMAXPROCS-based default), is always a power of two, and collapses for
//     small caches so each segment keeps a useful share of the capacity.
//
//   - Storage: each segment keeps a map[K]*node for lookups and an intrusive
//     MRU..LRU doubly linked list for ordering. All operations are O(1)
//     expected.
//
//   - Bounds: MaximumSize bounds the entry count; MaximumWeight plus a
//     Weigher bounds the total weight instead. The global bound is split
//     across segments so the shares sum exactly to it, and every write
//     evicts synchronously until its segment's share holds again. The two
//     bounds are mutually exclusive.
//
//   - Loading: Get runs the configured Loader on miss with at most one
//     in-flight load per key. Concurrent callers for the same key wait for
//     the single flight and see the same value or the same *LoadError.
//     Failures are never cached. A Put or Invalidate racing a load wins:
//     the load's result is delivered to its waiters but not installed.
//
//   - Policies: eviction policy is pluggable via the policy package.
//     LRU is the default. A 2Q policy is provided (resists scan pollution).
//     More policies can be added without changing the segment.
//
//   - Expiry: ExpireAfterWrite and ExpireAfterAccess set per-entry deadlines
//     (UnixNano). Expiration is lazy on access; expired entries read as
//     absent before eviction.
//
//   - Statistics: with RecordStats set, the cache keeps monotonic counters
//     for hits, misses, load successes/failures, total load time, and
//     evictions, exposed as a Stats snapshot with derived rates.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Load signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
//   - Callbacks: Options.OnRemoval(k, v, cause) is called for every removal
//     (cause is one of CauseExplicit, CauseReplaced, CauseSize,
//     CauseExpired).
//
// # Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{MaximumSize: 10_000})
//	if err != nil {
//	    // invalid configuration
//	}
//	c.Put("a", []byte("1"))
//	if v, ok := c.GetIfPresent("a"); ok {
//	    _ = v // use value
//	}
//	c.Invalidate("a")
//
// # Loading
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    MaximumSize: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        // e.g. fetch from DB
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.Get(context.Background(), "key")
//
// # Expiry
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    MaximumSize:      1024,
//	    ExpireAfterWrite: 200 * time.Millisecond,
//	})
//	c.Put("tmp", "v")
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.GetIfPresent("tmp") // ok == false (expired)
//
// # Using an alternative policy (2Q)
//
//	c, _ := cache.New[string, string](cache.Options[string, string]{
//	    MaximumSize: 50_000,
//	    Policy:      twoq.New[string, string](12_500, 25_000),
//	})
//
// # Exporting metrics
//
//	m := prom.New(nil, "myapp", "cache", nil) // implements Metrics
//	c, _ := cache.New[string, []byte](cache.Options[string, []byte]{
//	    MaximumSize: 10_000,
//	    Metrics:     m,
//	})
//
// # Thread-safety and complexity
//
// All methods on Cache are safe for concurrent use. Typical operation cost
// is O(1) expected time: one map access and a constant amount of pointer
// fixes. Eviction work is also O(1) per removed item. Statistics are
// per-segment padded atomics aggregated on read, so a Stats snapshot is
// eventually consistent with concurrent operations.
package cache
