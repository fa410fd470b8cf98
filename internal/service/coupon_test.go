package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/models"
)

type fakeCouponStore struct {
	meta         *models.CouponMeta
	customerUses int
	settledSales int
	lookups      int
}

func (f *fakeCouponStore) GetMetaByCode(ctx context.Context, code string) (*models.CouponMeta, error) {
	f.lookups++
	if f.meta != nil && code == f.meta.Code {
		return f.meta, nil
	}
	return nil, nil
}

func (f *fakeCouponStore) CountUsageByCustomer(ctx context.Context, couponID int64, customerID uuid.UUID) (int, error) {
	return f.customerUses, nil
}

func (f *fakeCouponStore) CountSettledSales(ctx context.Context, customerID uuid.UUID) (int, error) {
	return f.settledSales, nil
}

var testNow = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC) // Wednesday noon

func baseCoupon() *models.CouponMeta {
	return &models.CouponMeta{
		Coupon: models.Coupon{
			ID:           1,
			Code:         "WELCOME20",
			DiscountType: models.DiscountTypePercentage,
			Value:        20,
			Active:       true,
		},
	}
}

func baseRequest() CouponRequest {
	return CouponRequest{
		Code:       "WELCOME20",
		Subtotal:   10000,
		CustomerID: uuid.New(),
		ServiceIDs: []string{"cut"},
		Categories: []string{"hair"},
		Weekday:    testNow.Weekday(),
		TimeOfDay:  "14:00",
	}
}

func validateWith(t *testing.T, store *fakeCouponStore, req CouponRequest) (int64, error) {
	t.Helper()
	svc := NewCouponService(store, clock.Fixed{T: testNow})
	_, discount, err := svc.Validate(context.Background(), req)
	return discount, err
}

func wantCouponError(t *testing.T, err error, code string) {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("got %v, want coupon error %q", err, code)
	}
	if e.Kind != apperr.KindCoupon || e.Code != code {
		t.Fatalf("got %s/%s, want coupon/%s", e.Kind, e.Code, code)
	}
}

func TestCouponValidateSuccess(t *testing.T) {
	store := &fakeCouponStore{meta: baseCoupon()}
	discount, err := validateWith(t, store, baseRequest())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// 20% of 10000
	if discount != 2000 {
		t.Errorf("discount = %d, want 2000", discount)
	}
}

func TestCouponValidateNotFound(t *testing.T) {
	_, err := validateWith(t, &fakeCouponStore{}, baseRequest())
	wantCouponError(t, err, "coupon_not_found")
}

func TestCouponValidateCodeCaseHandledByStore(t *testing.T) {
	// matching is delegated to the store; the service passes the code through
	store := &fakeCouponStore{meta: baseCoupon()}
	req := baseRequest()
	if _, err := validateWith(t, store, req); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if store.lookups != 1 {
		t.Errorf("lookups = %d, want 1", store.lookups)
	}
}

func TestCouponValidateInactive(t *testing.T) {
	meta := baseCoupon()
	meta.Active = false
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "coupon_inactive")
}

func TestCouponValidateValidityWindow(t *testing.T) {
	meta := baseCoupon()
	future := testNow.Add(24 * time.Hour)
	meta.ValidFrom = &future
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "coupon_not_yet_valid")

	meta = baseCoupon()
	past := testNow.Add(-24 * time.Hour)
	meta.ValidUntil = &past
	_, err = validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "coupon_expired")
}

func TestCouponValidateUsageLimit(t *testing.T) {
	meta := baseCoupon()
	limit := 100
	meta.UsageLimit = &limit
	meta.UsageCount = 100
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "coupon_exhausted")
}

func TestCouponValidateMinSubtotal(t *testing.T) {
	meta := baseCoupon()
	min := int64(15000)
	meta.MinSubtotal = &min
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "subtotal_below_minimum")
}

func TestCouponValidateServiceAllowList(t *testing.T) {
	meta := baseCoupon()
	meta.ServiceIDs = []string{"color"}
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "service_not_applicable")

	// all requested services inside the list pass
	meta.ServiceIDs = []string{"cut", "color"}
	if _, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest()); err != nil {
		t.Fatalf("allowed service: %v", err)
	}
}

func TestCouponValidateCategoryAllowList(t *testing.T) {
	meta := baseCoupon()
	meta.Categories = []string{"nails"}
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "category_not_applicable")
}

func TestCouponValidateWeekdayAllowList(t *testing.T) {
	meta := baseCoupon()
	meta.Weekdays = []time.Weekday{time.Monday}
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "weekday_not_applicable")

	meta.Weekdays = []time.Weekday{time.Monday, testNow.Weekday()}
	if _, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest()); err != nil {
		t.Fatalf("allowed weekday: %v", err)
	}
}

func TestCouponValidateTimeWindow(t *testing.T) {
	from := models.TimeOfDay("10:00")
	until := models.TimeOfDay("13:00")
	meta := baseCoupon()
	meta.TimeFrom = &from
	meta.TimeUntil = &until

	req := baseRequest()
	req.TimeOfDay = "14:00"
	_, err := validateWith(t, &fakeCouponStore{meta: meta}, req)
	wantCouponError(t, err, "outside_time_window")

	// the window is inclusive on both ends
	req.TimeOfDay = "13:00"
	if _, err := validateWith(t, &fakeCouponStore{meta: meta}, req); err != nil {
		t.Fatalf("boundary time: %v", err)
	}
	req.TimeOfDay = "10:00"
	if _, err := validateWith(t, &fakeCouponStore{meta: meta}, req); err != nil {
		t.Fatalf("boundary time: %v", err)
	}
}

func TestCouponValidatePerCustomerLimit(t *testing.T) {
	meta := baseCoupon()
	limit := 1
	meta.PerCustomerLimit = &limit
	store := &fakeCouponStore{meta: meta, customerUses: 1}
	_, err := validateWith(t, store, baseRequest())
	wantCouponError(t, err, "customer_limit_reached")
}

func TestCouponValidateAudienceRules(t *testing.T) {
	meta := baseCoupon()
	meta.FirstTimeOnly = true
	_, err := validateWith(t, &fakeCouponStore{meta: meta, settledSales: 3}, baseRequest())
	wantCouponError(t, err, "not_first_time_customer")

	meta = baseCoupon()
	meta.ReturningOnly = true
	_, err = validateWith(t, &fakeCouponStore{meta: meta, settledSales: 0}, baseRequest())
	wantCouponError(t, err, "not_returning_customer")
}

func TestCouponValidateRuleOrder(t *testing.T) {
	// a coupon failing several rules reports the earliest one
	meta := baseCoupon()
	meta.Active = false
	min := int64(99999)
	meta.MinSubtotal = &min
	meta.Weekdays = []time.Weekday{time.Monday}

	_, err := validateWith(t, &fakeCouponStore{meta: meta}, baseRequest())
	wantCouponError(t, err, "coupon_inactive")
}

func TestComputeDiscount(t *testing.T) {
	pct := &models.Coupon{DiscountType: models.DiscountTypePercentage, Value: 20}
	if got := ComputeDiscount(pct, 10000); got != 2000 {
		t.Errorf("percentage: got %d, want 2000", got)
	}
	// integer division floors
	if got := ComputeDiscount(pct, 999); got != 199 {
		t.Errorf("percentage floor: got %d, want 199", got)
	}

	fixed := &models.Coupon{DiscountType: models.DiscountTypeFixed, Value: 1000}
	if got := ComputeDiscount(fixed, 10000); got != 1000 {
		t.Errorf("fixed: got %d, want 1000", got)
	}
	// fixed discounts clamp to the subtotal
	if got := ComputeDiscount(fixed, 500); got != 500 {
		t.Errorf("fixed clamp: got %d, want 500", got)
	}
}
