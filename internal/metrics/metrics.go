// Package metrics provides Prometheus counters for the scan pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flipscan"

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Fetcher metrics
	HTTPRequests *prometheus.CounterVec
	HTTPRetries  prometheus.Counter

	// Block timestamp metrics
	BlockCacheHits   prometheus.Counter
	BlockCacheMisses prometheus.Counter
	BlockUnresolved  prometheus.Counter

	// Scan metrics
	SalesFetched   *prometheus.CounterVec
	TargetsScanned prometheus.Counter
	FlipsDetected  prometheus.Counter
}

// NewMetrics registers every metric on a private registry so that several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP attempts by outcome",
		}, []string{"outcome"}),
		HTTPRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Total number of retried attempts",
		}),

		BlockCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "cache_hits_total",
			Help:      "Block timestamp lookups served from cache",
		}),
		BlockCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "cache_misses_total",
			Help:      "Block timestamp lookups that required an RPC call",
		}),
		BlockUnresolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "unresolved_total",
			Help:      "Block timestamp lookups that failed after all retries",
		}),

		SalesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "sales_fetched_total",
			Help:      "Sale events fetched by listing scope",
		}, []string{"scope"}),
		TargetsScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "targets_scanned_total",
			Help:      "Unique tokens whose history was analysed",
		}),
		FlipsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "flips_detected_total",
			Help:      "Quick flips detected",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.HTTPRetries.Inc()
}

func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.BlockCacheHits.Inc()
}

func (m *Metrics) ObserveCacheMiss() {
	if m == nil {
		return
	}
	m.BlockCacheMisses.Inc()
}

func (m *Metrics) ObserveUnresolvedBlock() {
	if m == nil {
		return
	}
	m.BlockUnresolved.Inc()
}

func (m *Metrics) ObserveSales(scope string, n int) {
	if m == nil {
		return
	}
	m.SalesFetched.WithLabelValues(scope).Add(float64(n))
}

func (m *Metrics) ObserveTargetScanned() {
	if m == nil {
		return
	}
	m.TargetsScanned.Inc()
}

func (m *Metrics) ObserveFlips(n int) {
	if m == nil {
		return
	}
	m.FlipsDetected.Add(float64(n))
}
