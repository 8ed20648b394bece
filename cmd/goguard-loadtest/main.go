package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type pairState struct {
	token      string
	commitment string
	refresh    string
	claims     goGuard.Identity
	mu         sync.Mutex
}

func main() {
	var (
		pairs       = flag.Int("pairs", 20000, "number of CSRF pairs to issue")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per verify phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "loadtest", "binding key prefix")
	)
	flag.Parse()

	if *pairs <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "pairs, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]pairState, *pairs)
	fmt.Printf("issuing %d csrf pairs...\n", *pairs)
	startSeed := time.Now()
	for i := range states {
		issued, err := engine.IssueCSRF(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		states[i].token = issued.Token
		states[i].commitment = issued.Commitment
		states[i].claims = goGuard.Identity{
			UserID: fmt.Sprintf("u%d", i),
			Email:  fmt.Sprintf("user%d@loadtest.local", i),
			Name:   "load",
		}
	}
	fmt.Printf("issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	anonStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		s := &states[r.Intn(len(states))]
		_, err := engine.VerifyAnonymous(ctx, s.commitment, s.token)
		return err
	})

	// Each pair is established exactly once; workers race only on the
	// shared cursor.
	establishStats := runPhase(len(states), *concurrency, func(_ *rand.Rand, i int) error {
		s := &states[i]
		s.mu.Lock()
		defer s.mu.Unlock()
		b, err := engine.VerifyAnonymous(ctx, s.commitment, s.token)
		if err != nil {
			return err
		}
		tokens, err := engine.EstablishSession(ctx, b, s.claims)
		if err != nil {
			return err
		}
		s.refresh = tokens.RefreshToken
		return nil
	})

	authorizedStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		s := &states[r.Intn(len(states))]
		s.mu.Lock()
		refresh := s.refresh
		s.mu.Unlock()
		sess, err := engine.VerifyAuthorized(ctx, s.commitment, s.token, refresh)
		if err != nil {
			return err
		}
		_, err = engine.RefreshSession(ctx, sess)
		return err
	})

	fmt.Println("---- results ----")
	printStats("verify_anonymous", anonStats)
	printStats("establish", establishStats)
	printStats("verify_authorized+refresh", authorizedStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("store_errors=%d touch_failures=%d\n",
		snap.Counters[goGuard.MetricStoreError],
		snap.Counters[goGuard.MetricBindingTouchFailure],
	)
}

func buildEngine(client redis.UniversalClient, prefix string) (*goGuard.Engine, error) {
	cfg := goGuard.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-jwt-secret-0123456789ab")
	cfg.Cookie.HashKey = []byte("loadtest-cookie-hash-key-0123456")
	cfg.Store.Prefix = prefix
	cfg.Security.EnableLoginThrottle = false
	cfg.Security.EnableRefreshThrottle = false
	cfg.CSRF.TTL = time.Hour

	return goGuard.New().
		WithConfig(cfg).
		WithRedis(client).
		Build()
}

// runPhase hands operation indexes 0..ops-1 to concurrency workers and
// times each call.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
