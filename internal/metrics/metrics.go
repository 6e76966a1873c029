// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the monitor updates at runtime. All
// collectors register themselves on the default registry at construction.
type Metrics struct {
	RecordsIngested    prometheus.Counter
	RecordsRejected    prometheus.Counter
	Opportunities      *prometheus.CounterVec
	OpportunitiesMuted prometheus.Counter
	Advisories         prometheus.Counter
	ScanDuration       prometheus.Histogram
	CacheEntries       prometheus.Gauge
	CacheEvictions     prometheus.Counter
}

// New registers and returns the monitor's collectors.
func New() *Metrics {
	return &Metrics{
		RecordsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dexmon_records_ingested_total",
			Help: "Price records accepted into the cache.",
		}),
		RecordsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dexmon_records_rejected_total",
			Help: "Price records rejected by validation.",
		}),
		Opportunities: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dexmon_opportunities_total",
			Help: "Opportunities emitted, by strategy.",
		}, []string{"strategy"}),
		OpportunitiesMuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dexmon_opportunities_muted_total",
			Help: "Opportunities suppressed by deduplication.",
		}),
		Advisories: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dexmon_advisories_total",
			Help: "Statistical breakdown advisories emitted.",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dexmon_scan_duration_seconds",
			Help:    "Wall time of a full pair scan across strategies.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dexmon_cache_entries",
			Help: "Live pair/venue entries in the price cache.",
		}),
		CacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dexmon_cache_evictions_total",
			Help: "Entries removed by TTL cleanup.",
		}),
	}
}
