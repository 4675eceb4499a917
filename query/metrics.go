package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marquee"

// Cache request results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

// Fetch statuses
const (
	FetchSuccess = "success"
	FetchError   = "error"
)

// Singleflight results
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Metrics holds the query cache counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	CacheRequests *prometheus.CounterVec
	Fetches       *prometheus.CounterVec
	Singleflight  *prometheus.CounterVec
	Evictions     prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Labels:
		//   - result: hit, miss, stale
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_requests_total",
				Help:      "Total number of query cache lookups",
			},
			[]string{"result"},
		),
		// Labels:
		//   - status: success, error
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_fetch_total",
				Help:      "Total number of query fetches sent to the backend",
			},
			[]string{"status"},
		),
		// Labels:
		//   - result: initiated (new execution), shared (reused result)
		Singleflight: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_singleflight_total",
				Help:      "Total number of coalesced query requests",
			},
			[]string{"result"},
		),
		Evictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_evictions_total",
				Help:      "Total number of idle cache entries evicted",
			},
		),
	}
}

func (m *Metrics) cacheRequest(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) fetch(status string) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(status).Inc()
}

func (m *Metrics) singleflight(shared bool) {
	if m == nil {
		return
	}
	if shared {
		m.Singleflight.WithLabelValues(SingleflightShared).Inc()
		return
	}
	m.Singleflight.WithLabelValues(SingleflightInitiated).Inc()
}

func (m *Metrics) eviction() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}
