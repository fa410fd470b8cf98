package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationWriteDuration tracks the latency of reservation create/edit
	// transactions, labelled by outcome.
	ReservationWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "reservation_write_duration_seconds",
			Help: "Duration of reservation write transactions in seconds",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0,
			},
		},
		[]string{"operation", "result"},
	)

	// SlotConflicts counts write attempts rejected by the in-transaction
	// conflict re-check, i.e. races actually lost.
	SlotConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_slot_conflicts_total",
			Help: "Reservation writes rejected because the slot was taken",
		},
	)

	// CouponValidations counts coupon rule evaluations by outcome code.
	CouponValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_validations_total",
			Help: "Coupon validations by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordReservationWrite records one reservation write transaction.
func RecordReservationWrite(operation, result string, seconds float64) {
	ReservationWriteDuration.WithLabelValues(operation, result).Observe(seconds)
}

// RecordCouponValidation records one coupon validation outcome.
func RecordCouponValidation(outcome string) {
	CouponValidations.WithLabelValues(outcome).Inc()
}
