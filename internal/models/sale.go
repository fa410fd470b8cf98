package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is a settled point-of-sale transaction. The id is supplied by the
// caller so that a retried settlement with the same id is a no-op. TaxRate
// is snapshotted at settlement; historical rows never re-read configuration.
type Sale struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ReservationID  *uuid.UUID `db:"reservation_id" json:"reservation_id,omitempty"`
	CustomerID     uuid.UUID  `db:"customer_id" json:"customer_id"`
	Subtotal       int64      `db:"subtotal" json:"subtotal"`
	DiscountAmount int64      `db:"discount_amount" json:"discount_amount"`
	CouponID       *int64     `db:"coupon_id" json:"coupon_id,omitempty"`
	TaxRate        int        `db:"tax_rate" json:"tax_rate"`
	TaxAmount      int64      `db:"tax_amount" json:"tax_amount"`
	Total          int64      `db:"total" json:"total"`
	SettledAt      time.Time  `db:"settled_at" json:"settled_at"`

	Items    []SaleItem    `db:"-" json:"items,omitempty"`
	Payments []PaymentLine `db:"-" json:"payments,omitempty"`
}

// SaleItem is a snapshot line, same shape as a reservation item.
type SaleItem struct {
	ID          int64     `db:"id" json:"-"`
	SaleID      uuid.UUID `db:"sale_id" json:"-"`
	ServiceID   string    `db:"service_id" json:"service_id"`
	ServiceName string    `db:"service_name" json:"service_name"`
	Category    string    `db:"category" json:"category"`
	Price       int64     `db:"price" json:"price"`
	Position    int       `db:"position" json:"-"`
}

// PaymentLine is one itemized payment method amount. The lines of a sale
// must sum to the sale total exactly.
type PaymentLine struct {
	ID     int64     `db:"id" json:"-"`
	SaleID uuid.UUID `db:"sale_id" json:"-"`
	Method string    `db:"method" json:"method"`
	Amount int64     `db:"amount" json:"amount"`
}
