// Package metrics exposes the Prometheus instruments of the dispatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel labels.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// Outcome labels.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

var (
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Per-recipient delivery outcomes by channel.",
	}, []string{"channel", "outcome"})

	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Duration of a whole dispatch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type", "partial"})
)

// RecordDeliveries adds n outcomes for channel.
func RecordDeliveries(channel, outcome string, n int) {
	if n <= 0 {
		return
	}
	deliveries.WithLabelValues(channel, outcome).Add(float64(n))
}

// ObserveDispatch records the duration of one dispatch in seconds.
func ObserveDispatch(notificationType string, partial bool, seconds float64) {
	p := "false"
	if partial {
		p = "true"
	}
	dispatchDuration.WithLabelValues(notificationType, p).Observe(seconds)
}
