package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlotsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drip_slots_unlocked_total",
			Help: "Total number of slots transitioned to unlocked",
		},
		[]string{"path"}, // path: backfill, catchup
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drip_reconcile_duration_seconds",
			Help:    "Duration of a single-user reconcile pass",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	SweepUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drip_sweep_users_total",
			Help: "Users processed by the background sweep",
		},
		[]string{"outcome"}, // outcome: ok, failed, skipped
	)

	NotifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drip_notify_failures_total",
			Help: "Notification dispatches that failed and were dropped",
		},
		[]string{"kind"}, // kind: tip_unlocked, daily_completed
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func ObserveReconcile(d time.Duration) {
	ReconcileDuration.Observe(d.Seconds())
}

func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
