package cache

import (
	"math"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/IvanBrykalov/loadcache/internal/util"
	"github.com/IvanBrykalov/loadcache/policy/lru"
)

var log = logging.Logger("loadcache")

// cache is a segmented in-memory loading cache with a pluggable eviction
// policy. All methods are safe for concurrent use by multiple goroutines.
type cache[K comparable, V any] struct {
	segments []*segment[K, V]
	hash     func(K) uint64
	closed   atomic.Bool

	opt Options[K, V]
	occ occupancy

	// Load counters live at the cache level: loads run outside any
	// segment lock, and Stats aggregates them with the per-segment
	// hit/miss/eviction counters.
	loadSuccess util.PaddedAtomicUint64
	loadFailure util.PaddedAtomicUint64
	loadTime    util.PaddedAtomicInt64 // summed nanoseconds
}

// New constructs a cache with the provided Options. The configuration is
// validated up front; every rejection wraps ErrInvalidConfiguration.
// Defaults:
//   - nil Metrics        -> NoopMetrics
//   - nil Policy         -> LRU
//   - ConcurrencyLevel 0 -> auto (power of two, scaled for small caches)
//
// The global MaximumSize/MaximumWeight bounds are split across segments so
// the per-segment shares sum exactly to the global limit; the total number
// of resident entries therefore never exceeds MaximumSize.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, V]()
	}

	// Segment count scales with the tighter of the two bounds so that a
	// small cache is not spread over segments with near-zero capacity.
	bound := opt.MaximumSize
	if bound == 0 && opt.MaximumWeight > 0 {
		if opt.MaximumWeight > math.MaxInt {
			bound = math.MaxInt
		} else {
			bound = int(opt.MaximumWeight)
		}
	}
	segs := util.SegmentCount(opt.ConcurrencyLevel, bound)
	caps := util.SplitEvenly(opt.MaximumSize, segs)
	weights := util.SplitEvenly(opt.MaximumWeight, segs)

	c := &cache[K, V]{
		segments: make([]*segment[K, V], segs),
		hash:     util.Fnv64a[K], // fast non-crypto hash for segment routing
	}
	c.opt = opt
	for i := range c.segments {
		c.segments[i] = newSegment[K, V](caps[i], weights[i], opt.Policy, &c.opt, &c.occ)
	}
	return c, nil
}

// ---- Cache[K,V] implementation (non-loading operations) ----

// GetIfPresent returns the value for k without ever loading.
// On hit, the entry is promoted according to the active policy.
func (c *cache[K, V]) GetIfPresent(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.segment(k).getIfPresent(k)
}

// Put inserts or updates k->v, applying ExpireAfterWrite/ExpireAfterAccess
// if configured, and evicts synchronously until the bound holds again.
func (c *cache[K, V]) Put(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.segment(k).put(k, v, c.writeDeadline(c.opt.ExpireAfterWrite), c.accessDeadline(), c.weightOf(k, v))
}

// PutWithTTL inserts or updates k->v with a per-entry TTL that overrides
// ExpireAfterWrite. A non-positive ttl disables write expiry for this entry.
func (c *cache[K, V]) PutWithTTL(k K, v V, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	c.segment(k).put(k, v, c.writeDeadline(ttl), c.accessDeadline(), c.weightOf(k, v))
}

// PutIfAbsent inserts k->v only if no live entry for k exists and reports
// whether it inserted. The existing entry is not promoted on the miss path.
func (c *cache[K, V]) PutIfAbsent(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	return c.segment(k).putIfAbsent(k, v, c.writeDeadline(c.opt.ExpireAfterWrite), c.accessDeadline(), c.weightOf(k, v))
}

// PutAll inserts or updates every pair in m, segment by segment.
func (c *cache[K, V]) PutAll(m map[K]V) {
	if c.closed.Load() {
		return
	}
	for k, v := range m {
		c.Put(k, v)
	}
}

// Invalidate removes the entry for k, if any, and reports whether an entry
// was removed. A load in flight for k is discarded: its result is still
// delivered to waiters but not installed.
func (c *cache[K, V]) Invalidate(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.segment(k).invalidate(k)
}

// InvalidateAll removes all entries. Each segment is cleared under its own
// lock, so the operation is point-in-time per segment rather than a single
// global barrier.
func (c *cache[K, V]) InvalidateAll() {
	if c.closed.Load() {
		return
	}
	for _, s := range c.segments {
		s.invalidateAll()
	}
}

// Len returns the total number of resident entries across all segments.
func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.segments {
		total += s.size()
	}
	return total
}

// Range calls f for every live entry until f returns false. Entries are
// snapshotted per segment first, so f may call back into the cache freely.
// Iteration does not promote entries.
func (c *cache[K, V]) Range(f func(k K, v V) bool) {
	if c.closed.Load() {
		return
	}
	var ks []K
	var vs []V
	for _, s := range c.segments {
		ks, vs = s.snapshot(ks, vs)
	}
	for i, k := range ks {
		if !f(k, vs[i]) {
			return
		}
	}
}

// Stats returns a snapshot of the cumulative counters. All zeros unless
// Options.RecordStats was set.
func (c *cache[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.segments {
		st.Hits += uint64(s.hits.Load())
		st.Misses += uint64(s.misses.Load())
		st.Evictions += s.evicts.Load()
	}
	st.LoadSuccesses = c.loadSuccess.Load()
	st.LoadFailures = c.loadFailure.Load()
	st.TotalLoadTime = time.Duration(c.loadTime.Load())
	return st
}

// Close marks the cache closed. Loading operations return ErrClosed
// afterward; reads miss and writes are ignored. Close is idempotent.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// ---- helpers ----

// segment picks a segment by hashing the key and masking with len-1.
// len(c.segments) is guaranteed to be a power of two.
func (c *cache[K, V]) segment(k K) *segment[K, V] {
	h := c.hash(k)
	idx := int(h) & (len(c.segments) - 1)
	return c.segments[idx]
}

// writeDeadline converts a relative TTL into an absolute UnixNano deadline.
// A non-positive ttl returns 0 (no write expiry).
func (c *cache[K, V]) writeDeadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return c.nowNano() + int64(ttl)
}

// accessDeadline returns the initial ExpireAfterAccess deadline, or 0 when
// access expiry is disabled.
func (c *cache[K, V]) accessDeadline() int64 {
	d := c.opt.ExpireAfterAccess
	if d <= 0 {
		return 0
	}
	return c.nowNano() + int64(d)
}

func (c *cache[K, V]) nowNano() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// weightOf computes the per-entry weight (clamped to int32 range).
func (c *cache[K, V]) weightOf(k K, v V) int32 {
	if c.opt.Weigher == nil {
		return 0
	}
	w := c.opt.Weigher(k, v)
	if w < 0 {
		w = 0
	}
	// clamp to int32 to avoid overflow
	if w > math.MaxInt32 {
		w = math.MaxInt32
	}
	return int32(w)
}
