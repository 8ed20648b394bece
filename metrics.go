package goGuard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricCSRFIssued counts anonymous CSRF bindings created.
	MetricCSRFIssued MetricID = iota
	// MetricCSRFIssueFailure counts issuance attempts that could not persist a binding.
	MetricCSRFIssueFailure
	MetricAnonymousVerifySuccess
	MetricAnonymousVerifyFailure
	MetricAuthorizedVerifySuccess
	MetricAuthorizedVerifyFailure
	// MetricSessionEstablished counts Anonymous to Authenticated transitions.
	MetricSessionEstablished
	MetricSessionEstablishFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshRateLimited
	MetricSessionRevoked
	MetricAccessVerifySuccess
	MetricAccessExpired
	MetricAccessInvalid
	// MetricBindingTouchFailure counts best-effort TTL extensions that failed.
	MetricBindingTouchFailure
	// MetricStoreError counts binding store failures other than a miss.
	MetricStoreError
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricAccountCreated
	MetricAccountDuplicate
	// MetricAuthorizedVerifyLatency is the only histogram; it times VerifyAuthorized.
	MetricAuthorizedVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. A nil or disabled Metrics ignores
// all updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
// Histograms hold per-bucket (not cumulative) counts; LatencySum is the total
// observed duration for the same histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	LatencySum map[MetricID]time.Duration
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
		LatencySum: map[MetricID]time.Duration{},
	}
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only
// MetricAuthorizedVerifyLatency carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAuthorizedVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
	if d > 0 {
		atomic.AddUint64(&m.histograms[id].sumNanos, uint64(d))
	}
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters. Histograms are included only when latency
// recording is enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return emptySnapshot()
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
		LatencySum: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAuthorizedVerifyLatency].buckets[i])
		}
		s.Histograms[MetricAuthorizedVerifyLatency] = buckets
		s.LatencySum[MetricAuthorizedVerifyLatency] = time.Duration(atomic.LoadUint64(&m.histograms[MetricAuthorizedVerifyLatency].sumNanos))
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
