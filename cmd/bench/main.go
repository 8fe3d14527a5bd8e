// Command bench runs a synthetic workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/loadcache/cache"
	pmet "github.com/IvanBrykalov/loadcache/metrics/prom"
	"github.com/IvanBrykalov/loadcache/policy/twoq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var (
		maxSize  = flag.Int("max", 100_000, "maximum cache size (entries)")
		segments = flag.Int("segments", 0, "concurrency level hint (0=auto)")
		policy   = flag.String("policy", "lru", "eviction policy: lru | 2q")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = max/2)")

		loading   = flag.Bool("loader", false, "route reads through Get with a synthetic loader")
		loadDelay = flag.Duration("load_delay", 0, "synthetic loader latency per miss")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "loadcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	var loaderCalls uint64
	opt := cache.Options[string, string]{
		MaximumSize:      *maxSize,
		ConcurrencyLevel: *segments,
		RecordStats:      true,
		Metrics:          metrics,
	}
	if *loading {
		delay := *loadDelay
		opt.Loader = func(ctx context.Context, key string) (string, error) {
			atomic.AddUint64(&loaderCalls, 1)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			return "v:" + key, nil
		}
	}
	switch *policy {
	case "lru":
		// nil => LRU by default
	case "2q":
		// split 2Q queues as a simple default
		opt.Policy = twoq.New[string, string](*maxSize/4, *maxSize/2)
	default:
		log.Fatalf("unknown policy: %q (use lru or 2q)", *policy)
	}
	c, err := cache.New[string, string](opt)
	if err != nil {
		log.Fatalf("build cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *maxSize / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Put(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	loadingVal := *loading
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if loadingVal {
						// Misses become loads; hit/miss split comes from Stats().
						_, _ = c.Get(ctx, keyByZipf())
						continue
					}
					if _, ok := c.GetIfPresent(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					k := keyByZipf()
					c.Put(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	st := c.Stats()

	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)
	if loadingVal {
		hitsN, missesN = st.Hits, st.Misses
	}
	hitRate := 0.0
	if hitsN+missesN > 0 {
		hitRate = float64(hitsN) / float64(hitsN+missesN) * 100
	}

	fmt.Printf("policy=%s max=%d segments=%d workers=%d keys=%d dur=%v seed=%d loader=%v\n",
		*policy, *maxSize, *segments, workersN, *keys, elapsed, seedBase, loadingVal)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n", hitsN, missesN, hitRate, st.Evictions)
	if loadingVal {
		fmt.Printf("loads=%d (ok=%d, fail=%d)  avg-load=%v  loader-calls=%d\n",
			st.LoadCount(), st.LoadSuccesses, st.LoadFailures, st.AverageLoadPenalty(), atomic.LoadUint64(&loaderCalls))
	}
	fmt.Printf("Len()=%d\n", c.Len())
}
