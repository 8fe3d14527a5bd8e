package util

import "testing"

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want uint64 }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8},
		{255, 256}, {256, 256}, {257, 512},
		{1 << 62, 1 << 62}, {(1 << 62) + 1, 1 << 63},
	}
	for _, c := range cases {
		if got := NextPow2(c.in); got != c.want {
			t.Fatalf("NextPow2(%d) = %d, want %d", c.in, got, c.want)
		}
	}
	// Overflow clamps to the highest 64-bit power of two.
	if got := NextPow2((1 << 63) + 1); got != 1<<63 {
		t.Fatalf("NextPow2 overflow = %d, want 1<<63", got)
	}
}

func TestSegmentCount_HonorsHintAsPowerOfTwo(t *testing.T) {
	t.Parallel()

	for _, c := range []struct{ hint, max, want int }{
		{1, 0, 1},
		{3, 0, 4},
		{16, 0, 16},
		{1000, 0, 256}, // clamped
	} {
		if got := SegmentCount(c.hint, c.max); got != c.want {
			t.Fatalf("SegmentCount(%d, %d) = %d, want %d", c.hint, c.max, got, c.want)
		}
	}
}

func TestSegmentCount_SmallCachesCollapse(t *testing.T) {
	t.Parallel()

	// A cache of 2 entries must never be spread across segments, whatever
	// the concurrency hint says; otherwise per-segment bounds of 1 would
	// make eviction order depend on key hashing.
	if got := SegmentCount(64, 2); got != 1 {
		t.Fatalf("SegmentCount(64, 2) = %d, want 1", got)
	}
	// A large cache keeps the hinted parallelism.
	if got := SegmentCount(64, 1_000_000); got != 64 {
		t.Fatalf("SegmentCount(64, 1_000_000) = %d, want 64", got)
	}
}

func TestSplitEvenly_SumsExactly(t *testing.T) {
	t.Parallel()

	for _, c := range []struct {
		total int
		parts int
	}{
		{10, 4}, {2, 1}, {7, 8}, {100, 16}, {1, 2},
	} {
		got := SplitEvenly(c.total, c.parts)
		if len(got) != c.parts {
			t.Fatalf("SplitEvenly(%d, %d) has %d parts", c.total, c.parts, len(got))
		}
		sum := 0
		for i, v := range got {
			sum += v
			if i > 0 && got[i-1] < v {
				t.Fatalf("SplitEvenly(%d, %d) not front-loaded: %v", c.total, c.parts, got)
			}
		}
		if sum != c.total {
			t.Fatalf("SplitEvenly(%d, %d) sums to %d: %v", c.total, c.parts, sum, got)
		}
	}
}

func TestSplitEvenly_Int64Weights(t *testing.T) {
	t.Parallel()

	got := SplitEvenly[int64](1<<40+3, 4)
	var sum int64
	for _, v := range got {
		sum += v
	}
	if sum != 1<<40+3 {
		t.Fatalf("weight split sums to %d", sum)
	}
}
