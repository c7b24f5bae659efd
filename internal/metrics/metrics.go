// Package metrics exposes Prometheus collectors for the SMS worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghasedak_sms"

// Provider metrics
var (
	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Total number of provider sends by request kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: ok, rejected, rate_limited, unknown
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	providerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Delivery errors by error code",
		},
		[]string{"code"},
	)
)

// Worker metrics
var (
	recordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Kafka records handled by terminal status event",
		},
		[]string{"event"},
	)

	inFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_in_flight",
			Help:      "Records currently being processed",
		},
	)
)

// RecordSend records the outcome and latency of a single provider call.
func RecordSend(kind, outcome string, duration time.Duration) {
	sendsTotal.WithLabelValues(kind, outcome).Inc()
	sendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordProviderError counts a delivery error by its code.
func RecordProviderError(code string) {
	if code == "" {
		code = "unknown"
	}
	providerErrorsTotal.WithLabelValues(code).Inc()
}

// RecordRecord counts a processed record by its final event type.
func RecordRecord(event string) {
	recordsTotal.WithLabelValues(event).Inc()
}

// IncInFlight marks a record as being processed.
func IncInFlight() { inFlight.Inc() }

// DecInFlight marks a record as finished.
func DecInFlight() { inFlight.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
