package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Appointment is a reservation. For any date the [StartTime, EndTime)
// intervals of confirmed appointments are pairwise non-overlapping; the
// reservation writer enforces that inside its transaction.
type Appointment struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	CustomerID     uuid.UUID         `db:"customer_id" json:"customer_id"`
	Date           time.Time         `db:"date" json:"date"`
	StartTime      TimeOfDay         `db:"start_time" json:"start_time"`
	EndTime        TimeOfDay         `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CouponCode     *string           `db:"coupon_code" json:"coupon_code,omitempty"`
	DiscountAmount int64             `db:"discount_amount" json:"discount_amount"`
	Note           string            `db:"note" json:"note,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`

	Items []AppointmentItem `db:"-" json:"items,omitempty"`
}

// AppointmentItem is a booking-time snapshot of a catalog service. Never
// re-derived from the live catalog after creation.
type AppointmentItem struct {
	ID            int64     `db:"id" json:"-"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"-"`
	ServiceID     string    `db:"service_id" json:"service_id"`
	ServiceName   string    `db:"service_name" json:"service_name"`
	Category      string    `db:"category" json:"category"`
	Price         int64     `db:"price" json:"price"`
	DurationMin   int       `db:"duration_min" json:"duration_min"`
	Position      int       `db:"position" json:"-"`
}

// Subtotal sums item snapshot prices.
func (a *Appointment) Subtotal() int64 {
	var sum int64
	for _, it := range a.Items {
		sum += it.Price
	}
	return sum
}
