// Package metrics holds the Prometheus instruments of the booking and review
// lifecycle. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tour_market"

type Metrics struct {
	bookingsCreated    *prometheus.CounterVec
	bookingTransitions *prometheus.CounterVec
	reviewsSubmitted   prometheus.Counter
	reviewsRejected    *prometheus.CounterVec
	ratingRecomputes   prometheus.Counter
	storageRetries     *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		bookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created, by initial status.",
		}, []string{"status"}),
		bookingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions, by source and target status.",
		}, []string{"from", "to"}),
		reviewsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Reviews stored.",
		}),
		reviewsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_rejected_total",
			Help:      "Review submissions rejected, by reason.",
		}, []string{"reason"}),
		ratingRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_recomputes_total",
			Help:      "Tour rating recomputations.",
		}),
		storageRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Retries after transient storage failures, by operation.",
		}, []string{"operation"}),
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of lifecycle operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) BookingCreated(status string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(status).Inc()
}

func (m *Metrics) BookingTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ReviewSubmitted() {
	if m == nil {
		return
	}
	m.reviewsSubmitted.Inc()
}

func (m *Metrics) ReviewRejected(reason string) {
	if m == nil {
		return
	}
	m.reviewsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RatingRecomputed() {
	if m == nil {
		return
	}
	m.ratingRecomputes.Inc()
}

func (m *Metrics) StorageRetry(operation string) {
	if m == nil {
		return
	}
	m.storageRetries.WithLabelValues(operation).Inc()
}

// ObserveOperation records the time since start under outcome "ok" or "error".
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
