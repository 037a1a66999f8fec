package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the scan path. A nil
// *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	ScansTotal            *prometheus.CounterVec
	NotificationsEnqueued prometheus.Counter
	ScanDuration          prometheus.Histogram
}

// New creates and registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tapgate_scans_total",
			Help: "Scan attempts by outcome (success, duplicate, not_found, rate_limited, error).",
		}, []string{"outcome"}),
		NotificationsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tapgate_notifications_enqueued_total",
			Help: "Notification messages written to the outbox.",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tapgate_scan_duration_seconds",
			Help:    "Wall time spent handling one scan.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveScan counts one scan outcome.
func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
}

// ObserveEnqueue counts one enqueued notification.
func (m *Metrics) ObserveEnqueue() {
	if m == nil {
		return
	}
	m.NotificationsEnqueued.Inc()
}

// ObserveDuration records the scan handling time in seconds.
func (m *Metrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(seconds)
}
