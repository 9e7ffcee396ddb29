package storefront

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type SearchMetrics struct {
	suggestDuration *prometheus.HistogramVec
	snapshotSize    prometheus.Gauge
	committed       prometheus.Counter
}

func NewSearchMetrics(reg *prometheus.Registry) *SearchMetrics {
	m := &SearchMetrics{
		suggestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_suggest_duration_seconds",
			Help:    "Suggestion lookup latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_snapshot_products",
			Help: "Products held by the in-memory catalog snapshot.",
		}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_searches_committed_total",
			Help: "Searches recorded into recent history.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.suggestDuration, m.snapshotSize, m.committed)
	}
	return m
}

func (m *SearchMetrics) ObserveSuggest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.suggestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *SearchMetrics) SetSnapshotSize(n int) {
	if m == nil {
		return
	}
	m.snapshotSize.Set(float64(n))
}

func (m *SearchMetrics) IncCommitted() {
	if m == nil {
		return
	}
	m.committed.Inc()
}
