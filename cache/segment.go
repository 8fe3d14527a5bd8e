package cache

import (
	"sync"
	"time"

	"github.com/IvanBrykalov/loadcache/internal/flight"
	"github.com/IvanBrykalov/loadcache/internal/util"
	"github.com/IvanBrykalov/loadcache/policy"
)

// occupancy mirrors entry/weight totals across all segments so Metrics.Size
// can report a whole-cache gauge without locking every segment.
type occupancy struct {
	entries util.PaddedAtomicInt64
	weight  util.PaddedAtomicInt64
}

// segment is an independent partition of the cache with its own lock, map,
// an intrusive doubly linked list (head=MRU, tail=LRU), and a table of
// in-flight loads for the keys routed here.
type segment[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu        sync.RWMutex
	m         map[K]*node[K, V]
	head      *node[K, V] // MRU
	tail      *node[K, V] // LRU
	len       int         // number of resident entries
	weight    int64       // total weight (if MaximumWeight is enabled)
	cap       int         // per-segment entry capacity (0 = unbounded)
	maxWeight int64       // per-segment weight limit (0 = disabled)

	// flights holds the in-flight load per absent key. Every table call
	// happens under mu, which makes "miss, so join or start a flight"
	// one atomic decision.
	flights *flight.Table[K, V]

	// Policy and options (policy uses hooks to manipulate the list).
	pol policy.SegmentPolicy[K, V]
	opt *Options[K, V]

	// occ is shared by all segments of the cache.
	occ *occupancy

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newSegment initializes a segment with its share of the global bounds.
// capacity and maxWeight are per-segment values; the caller splits the
// global limits so that the per-segment shares sum exactly to them.
func newSegment[K comparable, V any](capacity int, maxWeight int64, pol policy.Policy[K, V], opt *Options[K, V], occ *occupancy) *segment[K, V] {
	s := &segment[K, V]{
		m:         make(map[K]*node[K, V], capacity),
		cap:       capacity,
		maxWeight: maxWeight,
		flights:   flight.NewTable[K, V](),
		opt:       opt,
		occ:       occ,
	}

	// Wrap this segment with policy hooks.
	h := segmentHooks[K, V]{s: s}
	s.pol = pol.New(h)
	return s
}

// getIfPresent returns the live value for k, promoting it on hit.
// Expired entries are evicted lazily and reported as a miss.
func (s *segment[K, V]) getIfPresent(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.lookupLocked(k); ok {
		s.recordHit()
		return n.val, true
	}
	s.recordMiss()
	var zero V
	return zero, false
}

// put inserts or updates an entry, promotes it according to the policy, and
// evicts until the segment's limits hold again. Any in-flight load for k is
// discarded: the write wins over the load.
func (s *segment[K, V]) put(k K, v V, expWrite, expAccess int64, w int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights.Discard(k)
	s.putLocked(k, v, expWrite, expAccess, w)
}

// putIfAbsent inserts only when no live entry for k exists. An expired
// resident entry does not block the insert. Reports whether it inserted.
func (s *segment[K, V]) putIfAbsent(k K, v V, expWrite, expAccess int64, w int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[k]; ok {
		if !n.expiredAt(s.now()) {
			return false
		}
		s.unlinkLocked(n, CauseExpired)
	}
	s.flights.Discard(k)
	s.putLocked(k, v, expWrite, expAccess, w)
	return true
}

// invalidate removes the entry for k, if any, and discards any in-flight
// load so a racing load result is not installed afterward. Reports whether
// a resident entry was removed.
func (s *segment[K, V]) invalidate(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights.Discard(k)
	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.unlinkLocked(n, CauseExplicit)
	s.publishSizeLocked()
	return true
}

// invalidateAll removes every resident entry and discards every in-flight
// load in this segment. Point-in-time for this segment only.
func (s *segment[K, V]) invalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights.DiscardAll()
	for _, n := range s.m {
		s.unlinkLocked(n, CauseExplicit)
	}
	s.publishSizeLocked()
}

// size returns the number of resident entries in this segment.
func (s *segment[K, V]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

// snapshot appends the live entries to ks/vs and returns the extended
// slices. Expired entries are skipped without evicting (read-only pass).
func (s *segment[K, V]) snapshot(ks []K, vs []V) ([]K, []V) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	for k, n := range s.m {
		if n.expiredAt(now) {
			continue
		}
		ks = append(ks, k)
		vs = append(vs, n.val)
	}
	return ks, vs
}

// -------------------- internals (mu held) --------------------

// putLocked is the insert/update core shared by put and the loading path
// (which installs under an already-held lock, after settling its flight).
func (s *segment[K, V]) putLocked(k K, v V, expWrite, expAccess int64, w int32) {
	n, ok := s.m[k]
	if ok {
		// In-place update: adjust the weight delta and promote.
		old := n.val
		delta := int64(w) - int64(n.weight)
		n.val = v
		n.expWrite = expWrite
		n.expAccess = expAccess
		n.weight = w
		s.weight += delta
		s.occ.weight.Add(delta)

		s.pol.OnUpdate(n)
		if cb := s.opt.OnRemoval; cb != nil {
			cb(k, old, CauseReplaced)
		}
	} else {
		// New entry path.
		n = &node[K, V]{key: k, val: v, expWrite: expWrite, expAccess: expAccess, weight: w}
		s.m[k] = n

		// Let the policy place/promote (and optionally suggest an eviction).
		if ev := s.pol.OnAdd(n); ev != nil {
			s.unlinkLocked(ev.(*node[K, V]), CauseSize)
		}
	}

	// An entry heavier than the segment's whole weight share can never
	// fit; unlink it right away instead of draining its neighbors first.
	// The map check skips it when the policy already chose it as the
	// overflow candidate above.
	if s.maxWeight > 0 && int64(w) > s.maxWeight {
		if cur, ok := s.m[k]; ok && cur == n {
			s.unlinkLocked(n, CauseSize)
		}
	}
	s.enforceLimitsLocked()
}

// lookupLocked returns the live node for k, lazily evicting an expired one.
// A returned node has been promoted and its access deadline refreshed.
func (s *segment[K, V]) lookupLocked(k K) (*node[K, V], bool) {
	n, ok := s.m[k]
	if !ok {
		return nil, false
	}
	now := s.now()
	if n.expiredAt(now) {
		s.unlinkLocked(n, CauseExpired)
		return nil, false
	}
	s.pol.OnGet(n)
	if d := s.opt.ExpireAfterAccess; d > 0 {
		n.expAccess = now + int64(d)
	}
	return n, true
}

func (s *segment[K, V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (s *segment[K, V]) recordHit() {
	if s.opt.RecordStats {
		s.hits.Add(1)
	}
	s.opt.Metrics.Hit()
}

func (s *segment[K, V]) recordMiss() {
	if s.opt.RecordStats {
		s.misses.Add(1)
	}
	s.opt.Metrics.Miss()
}

// insertFront inserts n at MRU in O(1).
func (s *segment[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
	s.weight += int64(n.weight)
	s.occ.entries.Add(1)
	s.occ.weight.Add(int64(n.weight))
}

// moveToFront promotes n to MRU in O(1).
func (s *segment[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode removes n from the list and updates counters in O(1).
func (s *segment[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
	s.weight -= int64(n.weight)
	if s.weight < 0 {
		s.weight = 0
	}
	s.occ.entries.Add(-1)
	s.occ.weight.Add(-int64(n.weight))
}

// back returns the current LRU node in O(1).
func (s *segment[K, V]) back() *node[K, V] { return s.tail }

// unlinkLocked removes the node, notifies the policy and the removal
// listener, and updates eviction accounting for automatic causes.
func (s *segment[K, V]) unlinkLocked(n *node[K, V], cause RemovalCause) {
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, n.key)
	if cause.Evicted() {
		if s.opt.RecordStats {
			s.evicts.Add(1)
		}
		s.opt.Metrics.Evict(cause)
	}
	if cb := s.opt.OnRemoval; cb != nil {
		// Callbacks run under the lock; keep them lightweight.
		cb(n.key, n.val, cause)
	}
}

// enforceLimitsLocked evicts LRU items until both count and weight limits
// are satisfied.
func (s *segment[K, V]) enforceLimitsLocked() {
	if s.cap > 0 {
		for s.len > s.cap {
			tail := s.back()
			if tail == nil {
				break
			}
			s.unlinkLocked(tail, CauseSize)
		}
	}
	if s.maxWeight > 0 {
		for s.weight > s.maxWeight {
			tail := s.back()
			if tail == nil {
				break
			}
			s.unlinkLocked(tail, CauseSize)
		}
	}
	s.publishSizeLocked()
}

func (s *segment[K, V]) publishSizeLocked() {
	s.opt.Metrics.Size(int(s.occ.entries.Load()), s.occ.weight.Load())
}

// -------------------- policy hooks --------------------

// segmentHooks adapts the segment's list operations to policy.Hooks.
type segmentHooks[K comparable, V any] struct{ s *segment[K, V] }

func (h segmentHooks[K, V]) MoveToFront(x policy.Node[K, V]) { h.s.moveToFront(x.(*node[K, V])) }
func (h segmentHooks[K, V]) PushFront(x policy.Node[K, V])   { h.s.insertFront(x.(*node[K, V])) }
func (h segmentHooks[K, V]) Remove(x policy.Node[K, V]) {
	// Policies call Remove while the segment lock is held.
	// Map bookkeeping is performed by the segment itself.
	h.s.removeNode(x.(*node[K, V]))
}
func (h segmentHooks[K, V]) Back() policy.Node[K, V] {
	// Return an untyped nil when the list is empty so callers can compare
	// against nil without tripping over a typed nil pointer.
	if n := h.s.back(); n != nil {
		return n
	}
	return nil
}
func (h segmentHooks[K, V]) Len() int { return h.s.len }
