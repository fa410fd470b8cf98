package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonkit/reserve-core/internal/models"
)

// CouponRepo reads and writes coupons, their allow-lists and usage counts.
type CouponRepo struct {
	db *sqlx.DB
}

func NewCouponRepo(db *sqlx.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

const couponColumns = `id, code, discount_type, value, valid_from, valid_until, usage_limit, usage_count,
	per_customer_limit, min_subtotal, time_from, time_until, first_time_only, returning_only, active,
	created_at, updated_at`

// GetMetaByCode returns the coupon and its allow-lists, matching the code
// case-insensitively. Returns nil when no such coupon exists.
func (r *CouponRepo) GetMetaByCode(ctx context.Context, code string) (*models.CouponMeta, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE lower(code) = lower($1)`

	var c models.Coupon
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &c, query, code)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	meta := &models.CouponMeta{Coupon: c}

	err = readWithRetry(ctx, func() error {
		meta.ServiceIDs = meta.ServiceIDs[:0]
		return r.db.SelectContext(ctx, &meta.ServiceIDs,
			`SELECT service_id FROM coupon_services WHERE coupon_id = $1`, c.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("get coupon services: %w", err)
	}

	err = readWithRetry(ctx, func() error {
		meta.Categories = meta.Categories[:0]
		return r.db.SelectContext(ctx, &meta.Categories,
			`SELECT category FROM coupon_categories WHERE coupon_id = $1`, c.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("get coupon categories: %w", err)
	}

	err = readWithRetry(ctx, func() error {
		meta.Weekdays = meta.Weekdays[:0]
		return r.db.SelectContext(ctx, &meta.Weekdays,
			`SELECT weekday FROM coupon_weekdays WHERE coupon_id = $1`, c.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("get coupon weekdays: %w", err)
	}

	return meta, nil
}

// CountUsageByCustomer counts settled consumptions of a coupon by one
// customer. coupon_usage rows are the source of truth for this.
func (r *CouponRepo) CountUsageByCustomer(ctx context.Context, couponID int64, customerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND customer_id = $2`

	var count int
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &count, query, couponID, customerID)
	})
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}

// CountSettledSales counts the customer's settled sales, for the
// first-time-only / returning-only checks.
func (r *CouponRepo) CountSettledSales(ctx context.Context, customerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM sales WHERE customer_id = $1`

	var count int
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &count, query, customerID)
	})
	if err != nil {
		return 0, fmt.Errorf("count settled sales: %w", err)
	}
	return count, nil
}

// Create inserts the coupon row and its allow-lists. Must run inside the
// caller's transaction.
func (r *CouponRepo) Create(ctx context.Context, tx DBExecutor, meta *models.CouponMeta) error {
	query := `
		INSERT INTO coupons
		(code, discount_type, value, valid_from, valid_until, usage_limit, usage_count,
		 per_customer_limit, min_subtotal, time_from, time_until, first_time_only, returning_only, active,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id
	`

	now := time.Now()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	err := tx.GetContext(ctx, &meta.ID, query,
		meta.Code, meta.DiscountType, meta.Value, meta.ValidFrom, meta.ValidUntil, meta.UsageLimit,
		meta.PerCustomerLimit, meta.MinSubtotal, meta.TimeFrom, meta.TimeUntil,
		meta.FirstTimeOnly, meta.ReturningOnly, meta.Active, now,
	)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}

	for _, sid := range meta.ServiceIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO coupon_services (coupon_id, service_id) VALUES ($1, $2)`, meta.ID, sid); err != nil {
			return fmt.Errorf("create coupon service: %w", err)
		}
	}
	for _, cat := range meta.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO coupon_categories (coupon_id, category) VALUES ($1, $2)`, meta.ID, cat); err != nil {
			return fmt.Errorf("create coupon category: %w", err)
		}
	}
	for _, wd := range meta.Weekdays {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO coupon_weekdays (coupon_id, weekday) VALUES ($1, $2)`, meta.ID, int(wd)); err != nil {
			return fmt.Errorf("create coupon weekday: %w", err)
		}
	}
	return nil
}

// LockByID locks the coupon row for the settlement increment.
func (r *CouponRepo) LockByID(ctx context.Context, tx DBExecutor, id int64) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 FOR UPDATE`

	var c models.Coupon
	if err := tx.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock coupon: %w", err)
	}
	return &c, nil
}

// IncrementUsage bumps the running usage counter by one. Called exactly once
// per settled sale, inside the settlement transaction.
func (r *CouponRepo) IncrementUsage(ctx context.Context, tx DBExecutor, id int64) error {
	query := `UPDATE coupons SET usage_count = usage_count + 1, updated_at = $2 WHERE id = $1`

	if _, err := tx.ExecContext(ctx, query, id, time.Now()); err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}
