package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics struct {
	ChecksServed        prometheus.Counter
	SanctionHits        prometheus.Counter
	Classifications     *prometheus.CounterVec
	ClassificationFlags *prometheus.CounterVec
	RequestsThrottled   prometheus.Counter
	RequestLatency      *prometheus.HistogramVec
	SyncRuns            *prometheus.CounterVec
	SyncDuration        prometheus.Histogram
	AddressesLoaded     prometheus.Gauge
	DenylistSize        prometheus.Gauge
}

func NewEngineMetrics() EngineMetrics {
	return EngineMetrics{
		ChecksServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_engine_checks_total",
			Help: "Total number of sanction checks served",
		}),
		SanctionHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_engine_sanction_hits_total",
			Help: "Total number of checks that matched a sanctioned address",
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_engine_classifications_total",
			Help: "Total number of address classifications by risk level",
		}, []string{"risk_level"}),
		ClassificationFlags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_engine_classification_features_total",
			Help: "Total number of times a specific classification feature fired",
		}, []string{"feature"}),
		RequestsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_engine_requests_throttled_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchlist_engine_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_engine_sync_runs_total",
			Help: "Total number of OFAC sync attempts by outcome",
		}, []string{"outcome"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchlist_engine_sync_duration_seconds",
			Help:    "Time taken to download and load the OFAC list in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		AddressesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchlist_engine_addresses_loaded",
			Help: "Number of addresses loaded by the last successful sync",
		}),
		DenylistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchlist_engine_denylist_size",
			Help: "Number of EVM addresses on the active classifier denylist",
		}),
	}
}

// Register adds every collector to reg.
func Register(reg prometheus.Registerer, m EngineMetrics) {
	reg.MustRegister(m.ChecksServed, m.SanctionHits, m.Classifications, m.ClassificationFlags, m.RequestsThrottled,
		m.RequestLatency, m.SyncRuns, m.SyncDuration, m.AddressesLoaded, m.DenylistSize)
}
