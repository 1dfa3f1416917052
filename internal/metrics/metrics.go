package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playslot",
			Name:      "booking_committed_total",
			Help:      "Count of slots committed to the store by policy.",
		},
		[]string{"policy"},
	)

	holdOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playslot",
			Name:      "hold_outcome_total",
			Help:      "Count of provisional hold outcomes.",
		},
		[]string{"outcome"},
	)

	capacityRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "playslot",
			Name:      "capacity_rejected_total",
			Help:      "Count of booking attempts rejected by the daily cap.",
		},
	)

	noAvailability = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "playslot",
			Name:      "no_availability_total",
			Help:      "Count of hour selections with no free slot.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "playslot",
			Name:      "http_requests_total",
			Help:      "Count of query API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCommitted, holdOutcome, capacityRejected, noAvailability, httpRequests)
	})
}

func IncBookingCommitted(policy string) {
	bookingCommitted.WithLabelValues(policy).Inc()
}

func IncHoldOutcome(outcome string) {
	holdOutcome.WithLabelValues(outcome).Inc()
}

func IncCapacityRejected() {
	capacityRejected.Inc()
}

func IncNoAvailability() {
	noAvailability.Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
