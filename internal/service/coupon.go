package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/metrics"
	"github.com/salonkit/reserve-core/internal/models"
)

// CouponStore is the read surface the evaluator needs. Everything here is
// read-only: the evaluator never consumes a usage slot.
type CouponStore interface {
	GetMetaByCode(ctx context.Context, code string) (*models.CouponMeta, error)
	CountUsageByCustomer(ctx context.Context, couponID int64, customerID uuid.UUID) (int, error)
	CountSettledSales(ctx context.Context, customerID uuid.UUID) (int, error)
}

// CouponRequest carries the evaluation context for one validation.
type CouponRequest struct {
	Code       string
	Subtotal   int64
	CustomerID uuid.UUID
	ServiceIDs []string
	Categories []string
	Weekday    time.Weekday
	TimeOfDay  models.TimeOfDay
}

// couponRule is one eligibility predicate. Returns nil when satisfied. The
// rule table's order is the precedence order; adding a rule means adding a
// row, not threading a new conditional through existing ones.
type couponRule struct {
	name  string
	check func(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error
}

// CouponService evaluates coupon eligibility and computes discounts, shared
// by reservations and point-of-sale settlement.
type CouponService struct {
	store CouponStore
	clk   clock.Clock
	rules []couponRule
}

func NewCouponService(store CouponStore, clk clock.Clock) *CouponService {
	s := &CouponService{store: store, clk: clk}
	s.rules = []couponRule{
		{"active", s.checkActive},
		{"validity_window", s.checkValidityWindow},
		{"usage_limit", s.checkUsageLimit},
		{"min_subtotal", s.checkMinSubtotal},
		{"service_allow_list", s.checkServices},
		{"category_allow_list", s.checkCategories},
		{"weekday_allow_list", s.checkWeekday},
		{"time_window", s.checkTimeWindow},
		{"per_customer_limit", s.checkPerCustomerLimit},
		{"first_time_only", s.checkFirstTimeOnly},
		{"returning_only", s.checkReturningOnly},
	}
	return s
}

// Validate runs the rule table in order, first failure wins, and computes
// the discount amount on success. Read-only: it never increments the usage
// counter or writes a usage record; that happens exactly once, at sale
// settlement.
func (s *CouponService) Validate(ctx context.Context, req CouponRequest) (*models.CouponMeta, int64, error) {
	meta, err := s.store.GetMetaByCode(ctx, req.Code)
	if err != nil {
		return nil, 0, err
	}
	if meta == nil {
		metrics.RecordCouponValidation("coupon_not_found")
		return nil, 0, apperr.Coupon("coupon_not_found", "no such coupon code")
	}

	for _, rule := range s.rules {
		if err := rule.check(ctx, meta, req); err != nil {
			if e, ok := apperr.As(err); ok {
				metrics.RecordCouponValidation(e.Code)
			}
			return nil, 0, err
		}
	}

	metrics.RecordCouponValidation("ok")
	return meta, ComputeDiscount(&meta.Coupon, req.Subtotal), nil
}

// ComputeDiscount derives the discount amount. Percentage discounts floor
// via integer division; fixed discounts clamp to the subtotal so the total
// never goes negative.
func ComputeDiscount(c *models.Coupon, subtotal int64) int64 {
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		return subtotal * c.Value / 100
	case models.DiscountTypeFixed:
		if c.Value > subtotal {
			return subtotal
		}
		return c.Value
	default:
		return 0
	}
}

func (s *CouponService) checkActive(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if !meta.Active {
		return apperr.Coupon("coupon_inactive", "this coupon is no longer active")
	}
	return nil
}

func (s *CouponService) checkValidityWindow(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	now := s.clk.Now()
	if meta.ValidFrom != nil && now.Before(*meta.ValidFrom) {
		return apperr.Coupon("coupon_not_yet_valid", "this coupon is not valid yet")
	}
	if meta.ValidUntil != nil && now.After(*meta.ValidUntil) {
		return apperr.Coupon("coupon_expired", "this coupon has expired")
	}
	return nil
}

func (s *CouponService) checkUsageLimit(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if meta.UsageLimit != nil && meta.UsageCount >= *meta.UsageLimit {
		return apperr.Coupon("coupon_exhausted", "this coupon has reached its usage limit")
	}
	return nil
}

func (s *CouponService) checkMinSubtotal(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if meta.MinSubtotal != nil && req.Subtotal < *meta.MinSubtotal {
		return apperr.Coupon("subtotal_below_minimum", "order subtotal is below the coupon minimum")
	}
	return nil
}

func (s *CouponService) checkServices(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if len(meta.ServiceIDs) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(meta.ServiceIDs))
	for _, id := range meta.ServiceIDs {
		allowed[id] = true
	}
	for _, id := range req.ServiceIDs {
		if !allowed[id] {
			return apperr.Coupon("service_not_applicable", "this coupon does not apply to the selected services")
		}
	}
	return nil
}

func (s *CouponService) checkCategories(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if len(meta.Categories) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(meta.Categories))
	for _, c := range meta.Categories {
		allowed[c] = true
	}
	for _, c := range req.Categories {
		if !allowed[c] {
			return apperr.Coupon("category_not_applicable", "this coupon does not apply to the selected categories")
		}
	}
	return nil
}

func (s *CouponService) checkWeekday(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if len(meta.Weekdays) == 0 {
		return nil
	}
	for _, wd := range meta.Weekdays {
		if wd == req.Weekday {
			return nil
		}
	}
	return apperr.Coupon("weekday_not_applicable", "this coupon is not valid on this day of the week")
}

func (s *CouponService) checkTimeWindow(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if meta.TimeFrom == nil || meta.TimeUntil == nil {
		return nil
	}
	// inclusive [from, until] window
	if req.TimeOfDay.Before(*meta.TimeFrom) || req.TimeOfDay.After(*meta.TimeUntil) {
		return apperr.Coupon("outside_time_window", "this coupon is not valid at this time of day")
	}
	return nil
}

func (s *CouponService) checkPerCustomerLimit(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if meta.PerCustomerLimit == nil {
		return nil
	}
	used, err := s.store.CountUsageByCustomer(ctx, meta.ID, req.CustomerID)
	if err != nil {
		return err
	}
	if used >= *meta.PerCustomerLimit {
		return apperr.Coupon("customer_limit_reached", "you have already used this coupon the maximum number of times")
	}
	return nil
}

func (s *CouponService) checkFirstTimeOnly(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if !meta.FirstTimeOnly {
		return nil
	}
	sales, err := s.store.CountSettledSales(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if sales > 0 {
		return apperr.Coupon("not_first_time_customer", "this coupon is for first-time customers only")
	}
	return nil
}

func (s *CouponService) checkReturningOnly(ctx context.Context, meta *models.CouponMeta, req CouponRequest) error {
	if !meta.ReturningOnly {
		return nil
	}
	sales, err := s.store.CountSettledSales(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if sales == 0 {
		return apperr.Coupon("not_returning_customer", "this coupon is for returning customers only")
	}
	return nil
}
