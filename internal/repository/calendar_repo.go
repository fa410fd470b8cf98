package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salonkit/reserve-core/internal/models"
)

// CalendarRepo reads and writes closure and forced-open-day rows.
type CalendarRepo struct {
	db *sqlx.DB
}

func NewCalendarRepo(db *sqlx.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// GetClosures returns all closure rows for a date, full-day first.
func (r *CalendarRepo) GetClosures(ctx context.Context, date time.Time) ([]models.Closure, error) {
	query := `
		SELECT id, date, all_day, start_time, end_time, reason, created_at
		FROM closures
		WHERE date = $1
		ORDER BY all_day DESC, start_time ASC NULLS FIRST
	`

	var closures []models.Closure
	err := readWithRetry(ctx, func() error {
		closures = closures[:0]
		return r.db.SelectContext(ctx, &closures, query, date.Format("2006-01-02"))
	})
	if err != nil {
		return nil, fmt.Errorf("get closures: %w", err)
	}
	return closures, nil
}

// HasForcedOpen reports whether the date has a forced-open override.
func (r *CalendarRepo) HasForcedOpen(ctx context.Context, date time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM forced_open_days WHERE date = $1`

	var count int
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &count, query, date.Format("2006-01-02"))
	})
	if err != nil {
		return false, fmt.Errorf("get forced open day: %w", err)
	}
	return count > 0, nil
}

// CreateClosure inserts a closure row.
func (r *CalendarRepo) CreateClosure(ctx context.Context, c *models.Closure) error {
	query := `
		INSERT INTO closures (date, all_day, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	c.CreatedAt = time.Now()
	err := r.db.GetContext(ctx, &c.ID, query,
		c.Date.Format("2006-01-02"), c.AllDay, c.StartTime, c.EndTime, c.Reason, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create closure: %w", err)
	}
	return nil
}

// CreateForcedOpenDay inserts a forced-open override for a date.
func (r *CalendarRepo) CreateForcedOpenDay(ctx context.Context, d *models.ForcedOpenDay) error {
	query := `
		INSERT INTO forced_open_days (date, created_at)
		VALUES ($1, $2)
		RETURNING id
	`

	d.CreatedAt = time.Now()
	if err := r.db.GetContext(ctx, &d.ID, query, d.Date.Format("2006-01-02"), d.CreatedAt); err != nil {
		return fmt.Errorf("create forced open day: %w", err)
	}
	return nil
}
