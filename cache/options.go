package cache

import (
	"context"
	"time"

	"github.com/IvanBrykalov/loadcache/policy"
)

// RemovalCause explains why an entry left the cache.
type RemovalCause int

const (
	// CauseExplicit: removed by Invalidate/InvalidateAll.
	CauseExplicit RemovalCause = iota
	// CauseReplaced: overwritten by Put/PutAll or a successful Refresh.
	CauseReplaced
	// CauseSize: evicted to satisfy MaximumSize/MaximumWeight.
	CauseSize
	// CauseExpired: expired by ExpireAfterWrite/ExpireAfterAccess
	// (lazy eviction on access).
	CauseExpired
)

// Evicted reports whether the removal was automatic (size or expiry),
// as opposed to a caller-initiated removal or replacement. Only evicted
// removals count toward Stats.Evictions.
func (c RemovalCause) Evicted() bool { return c == CauseSize || c == CauseExpired }

func (c RemovalCause) String() string {
	switch c {
	case CauseExplicit:
		return "explicit"
	case CauseReplaced:
		return "replaced"
	case CauseSize:
		return "size"
	case CauseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Loader fetches or computes the value for a key on cache miss.
// It must be safe for concurrent use; the cache guarantees at most one
// in-flight invocation per distinct key at a time.
type Loader[K comparable, V any] func(ctx context.Context, k K) (V, error)

// RemovalListener observes every entry removal with its cause.
// Called under the segment lock; keep implementations lightweight.
type RemovalListener[K comparable, V any] func(k K, v V, cause RemovalCause)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(cause RemovalCause)
	// Size reports total occupancy after a write. The values come from
	// shared counters, so the gauge is eventually consistent.
	Size(entries int, weight int64)
	// LoadSuccess/LoadFailure observe one loader invocation with its
	// wall-clock duration.
	LoadSuccess(d time.Duration)
	LoadFailure(d time.Duration)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. The zero value is a valid
// unbounded, non-loading, non-expiring cache; defaults applied in New():
//   - nil Policy          => LRU
//   - ConcurrencyLevel 0  => auto (power of two, scaled down for small caches)
//   - nil Metrics         => NoopMetrics
type Options[K comparable, V any] struct {
	// MaximumSize is the entry count bound (0 = unbounded). When an insert
	// exceeds it, least-recently-used entries are evicted synchronously
	// before the write returns. Mutually exclusive with MaximumWeight.
	MaximumSize int

	// MaximumWeight bounds the sum of per-entry weights (0 = disabled).
	// Requires Weigher. Mutually exclusive with MaximumSize.
	MaximumWeight int64

	// Weigher computes the logical weight of an entry (e.g., bytes).
	// Negative results are treated as 0.
	Weigher func(k K, v V) int

	// ConcurrencyLevel hints the number of internal segments. If 0, an
	// automatic value is chosen (about 2*GOMAXPROCS) and rounded to the
	// next power of two; small MaximumSize values scale the count down so
	// each segment keeps a useful share of the capacity.
	ConcurrencyLevel int

	// Policy is a pluggable eviction policy (LRU/2Q); nil => LRU.
	Policy policy.Policy[K, V]

	// ExpireAfterWrite expires an entry this long after it was written
	// (0 = never). Expiry is lazy: checked under the segment lock on access.
	ExpireAfterWrite time.Duration

	// ExpireAfterAccess expires an entry this long after its last read or
	// write (0 = never). Each hit pushes the deadline forward.
	ExpireAfterAccess time.Duration

	// Loader fetches a value on cache miss. Enables Get/GetAll/Refresh.
	Loader Loader[K, V]

	// LoadTimeout bounds a single loader invocation (0 = no bound).
	// Applied to the leader's context; a timed-out load fails with a
	// *LoadError wrapping context.DeadlineExceeded.
	LoadTimeout time.Duration

	// RecordStats enables the internal hit/miss/load/eviction counters
	// behind Stats(). When false, Stats() reads as zero. Metrics is
	// invoked either way.
	RecordStats bool

	// OnRemoval is called for every removal (explicit, replaced, size,
	// expired) under the segment lock; keep callbacks lightweight.
	OnRemoval RemovalListener[K, V]

	// Metrics receives Hit/Miss/Evict/Size/Load signals. Nil => NoopMetrics.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}

// validate rejects configurations the cache cannot honor. All rejections
// wrap ErrInvalidConfiguration.
func (o *Options[K, V]) validate() error {
	if o.MaximumSize < 0 {
		return configErr("MaximumSize must be >= 0, got %d", o.MaximumSize)
	}
	if o.MaximumWeight < 0 {
		return configErr("MaximumWeight must be >= 0, got %d", o.MaximumWeight)
	}
	if o.MaximumSize > 0 && o.MaximumWeight > 0 {
		return configErr("MaximumSize and MaximumWeight are mutually exclusive")
	}
	if o.MaximumWeight > 0 && o.Weigher == nil {
		return configErr("MaximumWeight requires a Weigher")
	}
	if o.Weigher != nil && o.MaximumWeight == 0 {
		return configErr("Weigher requires MaximumWeight")
	}
	if o.ConcurrencyLevel < 0 {
		return configErr("ConcurrencyLevel must be >= 0, got %d", o.ConcurrencyLevel)
	}
	if o.ExpireAfterWrite < 0 {
		return configErr("ExpireAfterWrite must be >= 0, got %v", o.ExpireAfterWrite)
	}
	if o.ExpireAfterAccess < 0 {
		return configErr("ExpireAfterAccess must be >= 0, got %v", o.ExpireAfterAccess)
	}
	if o.LoadTimeout < 0 {
		return configErr("LoadTimeout must be >= 0, got %v", o.LoadTimeout)
	}
	return nil
}
