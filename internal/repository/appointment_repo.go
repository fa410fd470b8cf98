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

// AppointmentRepo reads and writes appointments and their item snapshots.
type AppointmentRepo struct {
	db *sqlx.DB
}

func NewAppointmentRepo(db *sqlx.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

const appointmentColumns = `id, customer_id, date, start_time, end_time, status, coupon_code, discount_amount, note, created_at, updated_at`

// GetByID returns an appointment with its items, or nil when absent.
func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appt models.Appointment
	err := readWithRetry(ctx, func() error {
		return r.db.GetContext(ctx, &appt, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	itemQuery := `
		SELECT id, appointment_id, service_id, service_name, category, price, duration_min, position
		FROM appointment_items
		WHERE appointment_id = $1
		ORDER BY position ASC
	`
	err = readWithRetry(ctx, func() error {
		appt.Items = appt.Items[:0]
		return r.db.SelectContext(ctx, &appt.Items, itemQuery, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get appointment items: %w", err)
	}
	return &appt, nil
}

// ListConfirmedByDate returns the confirmed appointments for a date, ordered
// by start time. Used on the lock-free availability read path.
func (r *AppointmentRepo) ListConfirmedByDate(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE date = $1 AND status = $2
		ORDER BY start_time ASC
	`

	var appts []models.Appointment
	err := readWithRetry(ctx, func() error {
		appts = appts[:0]
		return r.db.SelectContext(ctx, &appts, query, date.Format("2006-01-02"), models.AppointmentStatusConfirmed)
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// LockDay serializes writers for one date with a transaction-scoped advisory
// lock. Row locks alone cannot do this: FOR UPDATE never blocks on a row a
// concurrent transaction is still inserting, so on a day with no lockable
// rows two writers would both see no conflict and both commit. The loser of
// this lock waits for the winner's commit and then re-checks against it.
func (r *AppointmentRepo) LockDay(ctx context.Context, tx DBExecutor, date time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, date.Format("2006-01-02")); err != nil {
		return fmt.Errorf("lock day: %w", err)
	}
	return nil
}

// LockConfirmedByDate locks and returns the day's confirmed appointments
// inside the caller's transaction. Runs after LockDay, so the snapshot
// includes any row a racing writer committed. exclude skips the appointment
// being edited.
func (r *AppointmentRepo) LockConfirmedByDate(ctx context.Context, tx DBExecutor, date time.Time, exclude *uuid.UUID) ([]models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE date = $1 AND status = $2 AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY start_time ASC
		FOR UPDATE
	`

	var appts []models.Appointment
	if err := tx.SelectContext(ctx, &appts, query, date.Format("2006-01-02"), models.AppointmentStatusConfirmed, exclude); err != nil {
		return nil, fmt.Errorf("lock appointments: %w", err)
	}
	return appts, nil
}

// Insert writes the appointment row and its item snapshots inside the
// caller's transaction.
func (r *AppointmentRepo) Insert(ctx context.Context, tx DBExecutor, appt *models.Appointment) error {
	query := `
		INSERT INTO appointments
		(id, customer_id, date, start_time, end_time, status, coupon_code, discount_amount, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, query,
		appt.ID, appt.CustomerID, appt.Date.Format("2006-01-02"), appt.StartTime, appt.EndTime,
		appt.Status, appt.CouponCode, appt.DiscountAmount, appt.Note, now,
	); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return r.insertItems(ctx, tx, appt.ID, appt.Items)
}

func (r *AppointmentRepo) insertItems(ctx context.Context, tx DBExecutor, apptID uuid.UUID, items []models.AppointmentItem) error {
	stmt := `
		INSERT INTO appointment_items (appointment_id, service_id, service_name, category, price, duration_min, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, it := range items {
		if _, err := tx.ExecContext(ctx, stmt,
			apptID, it.ServiceID, it.ServiceName, it.Category, it.Price, it.DurationMin, i,
		); err != nil {
			return fmt.Errorf("insert appointment item: %w", err)
		}
	}
	return nil
}

// Update rewrites the mutable appointment fields and replaces the item
// snapshots inside the caller's transaction.
func (r *AppointmentRepo) Update(ctx context.Context, tx DBExecutor, appt *models.Appointment) error {
	query := `
		UPDATE appointments
		SET date = $2, start_time = $3, end_time = $4, status = $5,
		    coupon_code = $6, discount_amount = $7, note = $8, updated_at = $9
		WHERE id = $1
	`

	appt.UpdatedAt = time.Now()
	res, err := tx.ExecContext(ctx, query,
		appt.ID, appt.Date.Format("2006-01-02"), appt.StartTime, appt.EndTime,
		appt.Status, appt.CouponCode, appt.DiscountAmount, appt.Note, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_items WHERE appointment_id = $1`, appt.ID); err != nil {
		return fmt.Errorf("replace appointment items: %w", err)
	}
	return r.insertItems(ctx, tx, appt.ID, appt.Items)
}

// UpdateStatus transitions an appointment's status. Takes an executor so
// settlement can run it inside its own transaction.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, ex DBExecutor, id uuid.UUID, status models.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`

	res, err := ex.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the appointment and its items inside the caller's
// transaction. Admin action only.
func (r *AppointmentRepo) Delete(ctx context.Context, tx DBExecutor, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_items WHERE appointment_id = $1`, id); err != nil {
		return fmt.Errorf("delete appointment items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
