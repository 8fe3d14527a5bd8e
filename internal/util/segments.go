package util

import "runtime"

// minSegmentEntries is the smallest per-segment capacity the sizing heuristic
// will accept before it halves the segment count. Small caches collapse to a
// single segment, which keeps eviction order deterministic for them.
const minSegmentEntries = 8

// SegmentCount picks the number of lock domains for a cache.
// concurrency is the caller's hint (expected number of concurrently updating
// goroutines); <= 0 means auto: nextPow2(2*GOMAXPROCS), clamped to [1..256].
// The result is always a power of two. When maximumSize > 0, the count is
// halved until every segment is entitled to at least minSegmentEntries slots,
// so a tiny cache is never spread thinner than its capacity.
func SegmentCount(concurrency, maximumSize int) int {
	var n int
	if concurrency > 0 {
		n = int(NextPow2(uint64(concurrency)))
	} else {
		p := runtime.GOMAXPROCS(0)
		if p < 1 {
			p = 1
		}
		n = int(NextPow2(uint64(p * 2)))
	}
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	if maximumSize > 0 {
		for n > 1 && maximumSize < n*minSegmentEntries {
			n >>= 1
		}
	}
	return n
}

type integer interface {
	~int | ~int64
}

// SplitEvenly distributes total across parts so the results sum to exactly
// total: the first total%parts parts receive one extra unit. The exact sum is
// what turns per-segment bounds into a global one.
func SplitEvenly[T integer](total T, parts int) []T {
	out := make([]T, parts)
	if parts <= 0 || total <= 0 {
		return out
	}
	base := total / T(parts)
	extra := int(total % T(parts))
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}
