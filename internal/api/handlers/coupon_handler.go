package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/repository"
	"github.com/salonkit/reserve-core/internal/service"
)

// --- Request / Response DTOs ---

type ValidateCouponBody struct {
	Code       string   `json:"code"`
	CustomerID string   `json:"customer_id"`
	ServiceIDs []string `json:"service_ids"`
	Date       string   `json:"date"`       // YYYY-MM-DD
	StartTime  string   `json:"start_time"` // HH:MM
}

type ValidateCouponResponse struct {
	Valid    bool   `json:"valid"`
	Discount int64  `json:"discount,omitempty"`
	Subtotal int64  `json:"subtotal,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

type CouponHandler struct {
	db         *sqlx.DB
	coupons    *service.CouponService
	couponRepo *repository.CouponRepo
	catalog    *service.Catalog
}

func NewCouponHandler(db *sqlx.DB, coupons *service.CouponService, couponRepo *repository.CouponRepo, catalog *service.Catalog) *CouponHandler {
	return &CouponHandler{db: db, coupons: coupons, couponRepo: couponRepo, catalog: catalog}
}

// Validate handles POST /coupons/validate. Purely advisory: nothing is
// reserved or consumed, and the same request can be replayed freely.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateCouponBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	customerID, err := uuid.Parse(body.CustomerID)
	if err != nil {
		writeError(w, apperr.Validation("invalid_customer_id", "customer_id must be a UUID"))
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	startTime, err := models.NewTimeOfDay(body.StartTime)
	if err != nil {
		writeError(w, apperr.Validation("invalid_start_time", "start_time must be formatted HH:MM"))
		return
	}

	services, err := h.catalog.Resolve(r.Context(), body.ServiceIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	var subtotal int64
	categories := make([]string, 0, len(services))
	for _, svc := range services {
		subtotal += svc.Price
		categories = append(categories, svc.Category)
	}

	_, discount, err := h.coupons.Validate(r.Context(), service.CouponRequest{
		Code:       body.Code,
		Subtotal:   subtotal,
		CustomerID: customerID,
		ServiceIDs: body.ServiceIDs,
		Categories: categories,
		Weekday:    date.Weekday(),
		TimeOfDay:  startTime,
	})
	if err != nil {
		// a failed predicate is a well-formed answer, not an HTTP failure
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindCoupon {
			writeJSON(w, http.StatusOK, ValidateCouponResponse{
				Valid:   false,
				Error:   e.Code,
				Message: e.Message,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateCouponResponse{
		Valid:    true,
		Discount: discount,
		Subtotal: subtotal,
	})
}

// --- Admin ---

type CreateCouponBody struct {
	Code             string   `json:"code"`
	DiscountType     string   `json:"discount_type"`
	Value            int64    `json:"value"`
	ValidFrom        string   `json:"valid_from,omitempty"`  // RFC3339
	ValidUntil       string   `json:"valid_until,omitempty"` // RFC3339
	UsageLimit       *int     `json:"usage_limit,omitempty"`
	PerCustomerLimit *int     `json:"per_customer_limit,omitempty"`
	MinSubtotal      *int64   `json:"min_subtotal,omitempty"`
	TimeFrom         string   `json:"time_from,omitempty"`  // HH:MM
	TimeUntil        string   `json:"time_until,omitempty"` // HH:MM
	FirstTimeOnly    bool     `json:"first_time_only,omitempty"`
	ReturningOnly    bool     `json:"returning_only,omitempty"`
	ServiceIDs       []string `json:"service_ids,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Weekdays         []int    `json:"weekdays,omitempty"` // 0=Sunday
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var body CreateCouponBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	meta, err := couponFromBody(&body)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		writeError(w, apperr.Upstream("could not start transaction", err))
		return
	}
	defer tx.Rollback()

	if err := h.couponRepo.Create(ctx, tx, meta); err != nil {
		writeError(w, apperr.Upstream("could not create coupon", err))
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, apperr.Upstream("could not commit coupon", err))
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

func couponFromBody(body *CreateCouponBody) (*models.CouponMeta, error) {
	if body.Code == "" {
		return nil, apperr.Validation("missing_code", "a coupon code is required")
	}

	dt := models.DiscountType(body.DiscountType)
	switch dt {
	case models.DiscountTypePercentage:
		if body.Value < 0 || body.Value > 100 {
			return nil, apperr.Validation("invalid_value", "percentage value must be between 0 and 100")
		}
	case models.DiscountTypeFixed:
		if body.Value < 0 {
			return nil, apperr.Validation("invalid_value", "fixed value must not be negative")
		}
	default:
		return nil, apperr.Validation("invalid_discount_type", "discount_type must be percentage or fixed")
	}

	meta := &models.CouponMeta{
		Coupon: models.Coupon{
			Code:             body.Code,
			DiscountType:     dt,
			Value:            body.Value,
			UsageLimit:       body.UsageLimit,
			PerCustomerLimit: body.PerCustomerLimit,
			MinSubtotal:      body.MinSubtotal,
			FirstTimeOnly:    body.FirstTimeOnly,
			ReturningOnly:    body.ReturningOnly,
			Active:           true,
		},
		ServiceIDs: body.ServiceIDs,
		Categories: body.Categories,
	}

	var err error
	if meta.ValidFrom, err = parseTimeOrEmpty(body.ValidFrom); err != nil {
		return nil, apperr.Validation("invalid_valid_from", "valid_from must be RFC3339")
	}
	if meta.ValidUntil, err = parseTimeOrEmpty(body.ValidUntil); err != nil {
		return nil, apperr.Validation("invalid_valid_until", "valid_until must be RFC3339")
	}
	if meta.TimeFrom, err = parseTimeOfDayOrEmpty(body.TimeFrom); err != nil {
		return nil, apperr.Validation("invalid_time_from", "time_from must be formatted HH:MM")
	}
	if meta.TimeUntil, err = parseTimeOfDayOrEmpty(body.TimeUntil); err != nil {
		return nil, apperr.Validation("invalid_time_until", "time_until must be formatted HH:MM")
	}
	if (meta.TimeFrom == nil) != (meta.TimeUntil == nil) {
		return nil, apperr.Validation("invalid_time_window", "time_from and time_until must be set together")
	}

	for _, wd := range body.Weekdays {
		if wd < 0 || wd > 6 {
			return nil, apperr.Validation("invalid_weekday", "weekdays must be 0 (Sunday) through 6 (Saturday)")
		}
		meta.Weekdays = append(meta.Weekdays, time.Weekday(wd))
	}
	return meta, nil
}

func parseTimeOrEmpty(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTimeOfDayOrEmpty(s string) (*models.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := models.NewTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
