package cache

import (
	"context"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/loadcache/internal/flight"
)

// Get returns the value for k, loading it on miss via Options.Loader.
//
// At most one load per distinct key is in flight at a time: the first
// goroutine to miss becomes the leader and runs the loader; concurrent
// callers for the same key join its flight and observe the same outcome.
// A failed load is delivered to every waiter as a *LoadError and leaves no
// entry behind; the next Get starts a fresh load. If k was invalidated or
// overwritten while the load ran, the result is returned to the waiters but
// not installed.
//
// With no Loader configured, a miss returns ErrNoLoader.
func (c *cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	s := c.segment(k)

	// The miss check and the flight decision happen under one lock hold,
	// so two concurrent misses for the same key cannot both lead.
	s.mu.Lock()
	if n, ok := s.lookupLocked(k); ok {
		v := n.val
		s.recordHit()
		s.mu.Unlock()
		return v, nil
	}
	s.recordMiss()
	if c.opt.Loader == nil {
		s.mu.Unlock()
		return zero, ErrNoLoader
	}
	f, leader := s.flights.Start(k)
	s.mu.Unlock()

	if !leader {
		return c.await(ctx, f)
	}
	return c.lead(ctx, s, k, f)
}

// GetAll returns the values for keys, loading the misses concurrently.
// Duplicate keys are collapsed before loading. Every successfully obtained
// pair is present in the returned map even when other keys fail; the
// per-key failures are aggregated into a single multierror value.
func (c *cache[K, V]) GetAll(ctx context.Context, keys []K) (map[K]V, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	seen := make(map[K]struct{}, len(keys))
	uniq := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	vals := make([]V, len(uniq))
	errs := make([]error, len(uniq))

	var g errgroup.Group
	g.SetLimit(2 * runtime.GOMAXPROCS(0))
	for i, k := range uniq {
		g.Go(func() error {
			vals[i], errs[i] = c.Get(ctx, k)
			return nil
		})
	}
	_ = g.Wait() // per-key errors are collected in errs

	out := make(map[K]V, len(uniq))
	var merr *multierror.Error
	for i, k := range uniq {
		if errs[i] != nil {
			merr = multierror.Append(merr, errs[i])
			continue
		}
		out[k] = vals[i]
	}
	return out, merr.ErrorOrNil()
}

// Refresh reloads k through the same flight table as Get, so a refresh and
// concurrent loading gets for the key share one loader invocation. On
// success the fresh value replaces the old one (the listener sees
// CauseReplaced) unless a concurrent invalidation discarded the flight. On
// failure the previous value, if any, is KEPT; readers keep being served
// the stale value while the refresh is in flight either way.
func (c *cache[K, V]) Refresh(ctx context.Context, k K) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if c.opt.Loader == nil {
		return zero, ErrNoLoader
	}
	s := c.segment(k)

	s.mu.Lock()
	f, leader := s.flights.Start(k)
	s.mu.Unlock()

	if !leader {
		return c.await(ctx, f)
	}
	v, err := c.lead(ctx, s, k, f)
	if err != nil {
		log.Warnw("refresh failed, keeping previous value", "key", k, "err", err)
	}
	return v, err
}

// await blocks until the flight settles or the caller's context is done.
// Context cancellation releases only this waiter; the load itself keeps
// running for the remaining ones.
func (c *cache[K, V]) await(ctx context.Context, f *flight.Flight[V]) (V, error) {
	select {
	case <-f.Done():
		return f.Result()
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// lead runs the loader for k as the flight's leader, installs the result
// when still permitted, and publishes the outcome to the waiters.
func (c *cache[K, V]) lead(ctx context.Context, s *segment[K, V], k K, f *flight.Flight[V]) (V, error) {
	v, err := c.load(ctx, k)

	s.mu.Lock()
	install := s.flights.Settle(k, f)
	if err == nil && install {
		s.putLocked(k, v, c.writeDeadline(c.opt.ExpireAfterWrite), c.accessDeadline(), c.weightOf(k, v))
	}
	s.mu.Unlock()

	if err != nil {
		err = &LoadError{Key: k, Err: err}
	} else if !install {
		log.Debugw("load result discarded, key invalidated during load", "key", k)
	}

	// Publish after the install so waiters observing Done() can already
	// see the entry via GetIfPresent.
	f.Publish(v, err)
	return v, err
}

// load runs one loader invocation with LoadTimeout applied, timing it and
// recording the load statistics and metrics.
func (c *cache[K, V]) load(ctx context.Context, k K) (V, error) {
	if t := c.opt.LoadTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	start := c.nowNano()
	v, err := c.opt.Loader(ctx, k)
	d := time.Duration(c.nowNano() - start)

	if c.opt.RecordStats {
		c.loadTime.Add(int64(d))
	}
	if err != nil {
		if c.opt.RecordStats {
			c.loadFailure.Add(1)
		}
		c.opt.Metrics.LoadFailure(d)
		return v, err
	}
	if c.opt.RecordStats {
		c.loadSuccess.Add(1)
	}
	c.opt.Metrics.LoadSuccess(d)
	return v, nil
}
