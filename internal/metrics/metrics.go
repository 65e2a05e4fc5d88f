package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "garage_bookings_admitted_total",
		Help: "Appointments accepted by the intake gate.",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_bookings_rejected_total",
		Help: "Appointments rejected by the intake gate, by reason.",
	}, []string{"reason"})

	PaymentsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_payments_finished_total",
		Help: "Payments reaching a terminal status, by status and method.",
	}, []string{"status", "method"})

	RelayEventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_relay_events_delivered_total",
		Help: "Change events fanned out to subscribers, by entity.",
	}, []string{"entity"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garage_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
