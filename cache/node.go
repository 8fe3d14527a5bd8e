package cache

// node is an intrusive doubly linked list element owned by a segment.
// It stores the key/value alongside list links and metadata used by
// eviction policies, expiry, and weight accounting.
type node[K comparable, V any] struct {
	key K
	val V

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[K, V]
	next *node[K, V]

	// Absolute expiration deadlines in UnixNano. Zero means "never".
	// expWrite is fixed at write time; expAccess is pushed forward on
	// every read or write when ExpireAfterAccess is configured.
	expWrite  int64
	expAccess int64

	// Logical weight used when MaximumWeight is enabled.
	// Entries are evicted until both length and weight limits are satisfied.
	weight int32
}

// expiredAt reports whether the entry is dead at the given UnixNano instant.
func (n *node[K, V]) expiredAt(now int64) bool {
	if n.expWrite != 0 && now > n.expWrite {
		return true
	}
	if n.expAccess != 0 && now > n.expAccess {
		return true
	}
	return false
}

// Key returns the node key (part of policy.Node interface).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored value (part of policy.Node interface).
// NOTE: callers must only read/write through this pointer while holding the
// segment lock; otherwise data races may occur.
func (n *node[K, V]) Value() *V { return &n.val }
