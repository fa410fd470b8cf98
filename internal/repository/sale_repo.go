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

// SaleRepo writes settled sales, their lines and coupon usage records.
type SaleRepo struct {
	db *sqlx.DB
}

func NewSaleRepo(db *sqlx.DB) *SaleRepo {
	return &SaleRepo{db: db}
}

// GetByID returns a settled sale with items and payment lines, or nil.
func (r *SaleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	query := `
		SELECT id, reservation_id, customer_id, subtotal, discount_amount, coupon_id,
		       tax_rate, tax_amount, total, settled_at
		FROM sales
		WHERE id = $1
	`

	var sale models.Sale
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &sale, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	err = readWithRetry(ctx, func() error {
		sale.Items = sale.Items[:0]
		return r.db.SelectContext(ctx, &sale.Items, `
			SELECT id, sale_id, service_id, service_name, category, price, position
			FROM sale_items WHERE sale_id = $1 ORDER BY position ASC`, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}

	err = readWithRetry(ctx, func() error {
		sale.Payments = sale.Payments[:0]
		return r.db.SelectContext(ctx, &sale.Payments, `
			SELECT id, sale_id, method, amount
			FROM sale_payments WHERE sale_id = $1 ORDER BY id ASC`, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get sale payments: %w", err)
	}

	return &sale, nil
}

// Insert writes the sale header. The id is caller-supplied; a replayed id
// inserts nothing and returns false, which is how settlement stays
// idempotent per sale.
func (r *SaleRepo) Insert(ctx context.Context, tx DBExecutor, sale *models.Sale) (bool, error) {
	query := `
		INSERT INTO sales
		(id, reservation_id, customer_id, subtotal, discount_amount, coupon_id, tax_rate, tax_amount, total, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	sale.SettledAt = time.Now()
	res, err := tx.ExecContext(ctx, query,
		sale.ID, sale.ReservationID, sale.CustomerID, sale.Subtotal, sale.DiscountAmount,
		sale.CouponID, sale.TaxRate, sale.TaxAmount, sale.Total, sale.SettledAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert sale: %w", err)
	}
	return n > 0, nil
}

// InsertLines writes item snapshots and payment lines for a freshly
// inserted sale.
func (r *SaleRepo) InsertLines(ctx context.Context, tx DBExecutor, sale *models.Sale) error {
	itemStmt := `
		INSERT INTO sale_items (sale_id, service_id, service_name, category, price, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, it := range sale.Items {
		if _, err := tx.ExecContext(ctx, itemStmt,
			sale.ID, it.ServiceID, it.ServiceName, it.Category, it.Price, i); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}

	payStmt := `INSERT INTO sale_payments (sale_id, method, amount) VALUES ($1, $2, $3)`
	for _, p := range sale.Payments {
		if _, err := tx.ExecContext(ctx, payStmt, sale.ID, p.Method, p.Amount); err != nil {
			return fmt.Errorf("insert sale payment: %w", err)
		}
	}
	return nil
}

// InsertCouponUsage appends the consumption record for a settled sale.
func (r *SaleRepo) InsertCouponUsage(ctx context.Context, tx DBExecutor, usage *models.CouponUsage) error {
	query := `
		INSERT INTO coupon_usage (coupon_id, sale_id, customer_id, used_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	usage.UsedAt = time.Now()
	if err := tx.GetContext(ctx, &usage.ID, query,
		usage.CouponID, usage.SaleID, usage.CustomerID, usage.UsedAt); err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}
