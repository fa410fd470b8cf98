package models

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon is an administrator-authored promotional rule set. Codes are unique
// case-insensitively; all constraint fields are optional and nil/empty means
// unconstrained.
type Coupon struct {
	ID               int64        `db:"id" json:"id"`
	Code             string       `db:"code" json:"code"`
	DiscountType     DiscountType `db:"discount_type" json:"discount_type"`
	Value            int64        `db:"value" json:"value"` // percent 0-100 or fixed amount
	ValidFrom        *time.Time   `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil       *time.Time   `db:"valid_until" json:"valid_until,omitempty"`
	UsageLimit       *int         `db:"usage_limit" json:"usage_limit,omitempty"`
	UsageCount       int          `db:"usage_count" json:"usage_count"`
	PerCustomerLimit *int         `db:"per_customer_limit" json:"per_customer_limit,omitempty"`
	MinSubtotal      *int64       `db:"min_subtotal" json:"min_subtotal,omitempty"`
	TimeFrom         *TimeOfDay   `db:"time_from" json:"time_from,omitempty"`
	TimeUntil        *TimeOfDay   `db:"time_until" json:"time_until,omitempty"`
	FirstTimeOnly    bool         `db:"first_time_only" json:"first_time_only"`
	ReturningOnly    bool         `db:"returning_only" json:"returning_only"`
	Active           bool         `db:"active" json:"active"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// CouponMeta is the read model for validation: the coupon row plus its
// allow-lists from the side tables.
type CouponMeta struct {
	Coupon
	ServiceIDs []string       // applicable service allow-list, empty = all
	Categories []string       // applicable category allow-list, empty = all
	Weekdays   []time.Weekday // applicable weekday allow-list, empty = all
}

// CouponUsage is the append-only consumption record, written exactly once
// per settled sale. It is the source of truth for per-customer counts.
type CouponUsage struct {
	ID         int64     `db:"id" json:"id"`
	CouponID   int64     `db:"coupon_id" json:"coupon_id"`
	SaleID     uuid.UUID `db:"sale_id" json:"sale_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	UsedAt     time.Time `db:"used_at" json:"used_at"`
}
