package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the scanner's Prometheus collectors.
type Metrics struct {
	PackagesScanned *prometheus.CounterVec
	DegradedScans   prometheus.Counter
	SessionsCreated prometheus.Counter
	ScanDuration    prometheus.Histogram
	LastSessionRisk *prometheus.GaugeVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PackagesScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "minewatch_packages_scanned_total",
			Help: "Total number of packages scanned, by risk level",
		}, []string{"risk_level"}),

		DegradedScans: factory.NewCounter(prometheus.CounterOpts{
			Name: "minewatch_degraded_scans_total",
			Help: "Total number of scans that fell back to a degraded result",
		}),

		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "minewatch_sessions_created_total",
			Help: "Total number of scan sessions persisted",
		}),

		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "minewatch_scan_duration_seconds",
			Help:    "Duration of full scan batches",
			Buckets: prometheus.DefBuckets,
		}),

		LastSessionRisk: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "minewatch_last_session_apps",
			Help: "Number of apps per risk level in the most recent session",
		}, []string{"risk_level"}),
	}
}
