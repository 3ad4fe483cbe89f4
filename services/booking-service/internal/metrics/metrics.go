package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "appointments_created_total",
			Help:      "Count of appointments created by initial status.",
		},
		[]string{"status"},
	)

	appointmentsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "appointments_cancelled_total",
			Help:      "Count of appointments cancelled by actor.",
		},
		[]string{"cancelled_by"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "conflicts_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "notifications_total",
			Help:      "Count of notification send attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	slotComputation = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "slot_computation_seconds",
			Help:      "Time spent computing available slots for one day.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentsCreated, appointmentsCancelled, bookingConflicts, notifications, slotComputation)
	})
}

func IncAppointmentCreated(status string) {
	appointmentsCreated.WithLabelValues(status).Inc()
}

func IncAppointmentCancelled(by string) {
	appointmentsCancelled.WithLabelValues(by).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncNotification(kind, outcome string) {
	notifications.WithLabelValues(kind, outcome).Inc()
}

func ObserveSlotComputation(d time.Duration) {
	slotComputation.Observe(d.Seconds())
}
