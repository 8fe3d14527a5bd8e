// Package policy defines the contract between a cache segment and its
// eviction policy. Policies decide ordering and eviction candidates;
// segments own the key->entry map, the capacity bounds and the actual
// removal of entries.
package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// It provides read-only access to the key and a pointer to the value.
// The pointer allows in-place updates without re-linking the intrusive node.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
}

// Hooks expose O(1) list operations that a policy can use to manipulate
// the segment's intrusive recency list. Implementations are provided by
// the segment.
//
// Concurrency: all hook calls happen under the segment lock.
// Important: hooks manage only the list; the segment owns the key->node map.
type Hooks[K comparable, V any] interface {
	// MoveToFront promotes the node to most-recently-used.
	MoveToFront(Node[K, V])
	// PushFront inserts the node at most-recently-used (used on admission).
	PushFront(Node[K, V])
	// Remove detaches the node from the list (map bookkeeping is done by the segment).
	Remove(Node[K, V])
	// Back returns the current least-recently-used node (or nil if empty).
	Back() Node[K, V]
	// Len returns the number of resident nodes in the segment.
	Len() int
}

// SegmentPolicy is a per-segment eviction policy instance bound to segment
// hooks. All methods are invoked under the segment lock.
//
// Semantics:
//   - OnAdd may return an eviction candidate (e.g., LRU of a probation queue).
//     The segment will evict that node and subsequently call OnRemove for it.
//   - OnGet/OnUpdate typically promote the node (e.g., move to MRU).
//   - OnRemove is a notification to update policy-internal state
//     (e.g., maintain ghost queues). The segment performs actual deletion.
type SegmentPolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict Node[K, V])
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
}

// Policy is a factory that creates segment-local policy instances
// bound to a particular segment's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) SegmentPolicy[K, V]
}
