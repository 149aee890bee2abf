package driver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricCallsEnqueued = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drover_driver_calls_enqueued_total",
		Help: "Outbound calls accepted onto the dispatch queue, by call type",
	}, []string{"type"})

var metricCallFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drover_driver_call_failures_total",
		Help: "Outbound calls that failed to send, by call type",
	}, []string{"type"})

var metricQueueRejections = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "drover_driver_queue_rejections_total",
		Help: "Outbound calls rejected because the dispatch queue was full",
	})

var metricEventsReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drover_driver_events_received_total",
		Help: "Events received on subscription streams, by event type",
	}, []string{"type"})

var metricReconnects = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "drover_driver_reconnects_total",
		Help: "Times a driver re-established its subscription after a disconnect",
	})

var metricOffersHeld = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "drover_driver_offers_held",
		Help: "Offers currently held by the offer tracker",
	})

var metricPendingAcks = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "drover_driver_pending_acknowledgements",
		Help: "Status updates recorded in the ledger and not yet acknowledged",
	})

// CountEvent records an inbound event for metrics. Exposed so the driver
// packages can tally events they decode.
func CountEvent(eventType string) {
	metricEventsReceived.WithLabelValues(eventType).Inc()
}

// CountReconnect records one successful re-subscription.
func CountReconnect() {
	metricReconnects.Inc()
}

// GaugeOffers publishes the current offer tracker size.
func GaugeOffers(n int) {
	metricOffersHeld.Set(float64(n))
}

// GaugePendingAcks publishes the current ledger size.
func GaugePendingAcks(n int) {
	metricPendingAcks.Set(float64(n))
}
