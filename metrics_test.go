package goGuard

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricCSRFIssued)

	if got := m.Value(MetricCSRFIssued); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricCSRFIssued)
	m.Inc(MetricCSRFIssued)
	m.Inc(MetricCSRFIssued)

	if got := m.Value(MetricCSRFIssued); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricAnonymousVerifySuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricAnonymousVerifySuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricAuthorizedVerifyLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthorizedVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricCSRFIssued)
	m.Inc(MetricStoreError)
	m.Inc(MetricStoreError)
	m.Observe(MetricAuthorizedVerifyLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricCSRFIssued] != 1 {
		t.Fatalf("expected MetricCSRFIssued=1 got %d", snap.Counters[MetricCSRFIssued])
	}
	if snap.Counters[MetricStoreError] != 2 {
		t.Fatalf("expected MetricStoreError=2 got %d", snap.Counters[MetricStoreError])
	}
	if len(snap.Histograms[MetricAuthorizedVerifyLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricAuthorizedVerifyLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricAuthorizedVerifyLatency][0])
	}
	if got := snap.LatencySum[MetricAuthorizedVerifyLatency]; got != 2*time.Millisecond {
		t.Fatalf("expected latency sum 2ms got %v", got)
	}
}

func TestVerifyAuthorizedRecordsLatencyAndCounters(t *testing.T) {
	h := newEngineHarness(t, func(cfg *Config) {
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
	})
	ctx := context.Background()

	issued, sess := h.login(t, "alice@example.com")
	if _, err := h.engine.VerifyAuthorized(ctx, issued.Commitment, issued.Token, sess.RefreshToken); err != nil {
		t.Fatalf("VerifyAuthorized: %v", err)
	}
	if _, err := h.engine.VerifyAuthorized(ctx, issued.Commitment, "wrong", sess.RefreshToken); err == nil {
		t.Fatal("expected mismatch")
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricAuthorizedVerifySuccess] != 1 || snap.Counters[MetricAuthorizedVerifyFailure] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
	var total uint64
	for _, v := range snap.Histograms[MetricAuthorizedVerifyLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency observations, got %d", total)
	}
}

func TestEngineMetricsSnapshotNeverNil(t *testing.T) {
	var nilEngine *Engine
	disabled := newEngineHarness(t, func(c *Config) { c.Metrics.Enabled = false }).engine

	for name, e := range map[string]*Engine{"nil engine": nilEngine, "metrics disabled": disabled} {
		snap := e.MetricsSnapshot()
		if snap.Counters == nil || snap.Histograms == nil || snap.LatencySum == nil {
			t.Fatalf("%s: snapshot maps must not be nil", name)
		}
		if len(snap.Counters) != 0 {
			t.Fatalf("%s: expected no counters, got %d", name, len(snap.Counters))
		}
	}
}
