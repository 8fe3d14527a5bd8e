package cache

import "time"

// Stats is a point-in-time snapshot of the cumulative cache counters.
// Counters are monotonic from construction; there is no reset. The snapshot
// is assembled from independent per-segment atomics, so it lags concurrent
// mutations slightly instead of being a single atomic cut.
//
// All counters read as zero unless Options.RecordStats was set.
type Stats struct {
	// Hits counts reads that returned a resident, unexpired value.
	Hits uint64
	// Misses counts reads that found no usable value (absent or expired),
	// whether or not a load followed.
	Misses uint64
	// LoadSuccesses counts loader invocations that returned a value.
	LoadSuccesses uint64
	// LoadFailures counts loader invocations that returned an error.
	LoadFailures uint64
	// TotalLoadTime is the summed wall-clock duration of all loader
	// invocations, successful or not.
	TotalLoadTime time.Duration
	// Evictions counts automatic removals only (size/weight pressure and
	// expiry). Explicit invalidation and replacement are not evictions.
	Evictions uint64
}

// Requests returns Hits + Misses.
func (s Stats) Requests() uint64 { return s.Hits + s.Misses }

// HitRate returns Hits / Requests, or 1.0 when no requests were recorded.
func (s Stats) HitRate() float64 {
	req := s.Requests()
	if req == 0 {
		return 1.0
	}
	return float64(s.Hits) / float64(req)
}

// MissRate returns Misses / Requests, or 0.0 when no requests were recorded.
func (s Stats) MissRate() float64 {
	req := s.Requests()
	if req == 0 {
		return 0.0
	}
	return float64(s.Misses) / float64(req)
}

// LoadCount returns LoadSuccesses + LoadFailures.
func (s Stats) LoadCount() uint64 { return s.LoadSuccesses + s.LoadFailures }

// AverageLoadPenalty returns TotalLoadTime / LoadCount, or 0 when no loads
// were recorded.
func (s Stats) AverageLoadPenalty() time.Duration {
	n := s.LoadCount()
	if n == 0 {
		return 0
	}
	return s.TotalLoadTime / time.Duration(n)
}
