package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/repository"
)

// AppointmentStore is the persistence surface of the reservation writer and
// settlement. Transactional methods take the caller's executor.
type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListConfirmedByDate(ctx context.Context, date time.Time) ([]models.Appointment, error)
	LockDay(ctx context.Context, tx repository.DBExecutor, date time.Time) error
	LockConfirmedByDate(ctx context.Context, tx repository.DBExecutor, date time.Time, exclude *uuid.UUID) ([]models.Appointment, error)
	Insert(ctx context.Context, tx repository.DBExecutor, appt *models.Appointment) error
	Update(ctx context.Context, tx repository.DBExecutor, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, ex repository.DBExecutor, id uuid.UUID, status models.AppointmentStatus) error
	Delete(ctx context.Context, tx repository.DBExecutor, id uuid.UUID) error
}

// SaleStore is the settlement write surface.
type SaleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	Insert(ctx context.Context, tx repository.DBExecutor, sale *models.Sale) (bool, error)
	InsertLines(ctx context.Context, tx repository.DBExecutor, sale *models.Sale) error
	InsertCouponUsage(ctx context.Context, tx repository.DBExecutor, usage *models.CouponUsage) error
}

// CouponLedger is the settlement-side coupon surface: code resolution plus
// the locked usage increment.
type CouponLedger interface {
	GetMetaByCode(ctx context.Context, code string) (*models.CouponMeta, error)
	LockByID(ctx context.Context, tx repository.DBExecutor, id int64) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, tx repository.DBExecutor, id int64) error
}

// Tx is one open transaction.
type Tx interface {
	repository.DBExecutor
	Commit() error
	Rollback() error
}

// TxStarter begins transactions, so services own transaction boundaries
// without holding the concrete pool.
type TxStarter interface {
	Begin(ctx context.Context) (Tx, error)
}

type dbTxStarter struct {
	db *sqlx.DB
}

// NewTxStarter wraps a pooled connection as a TxStarter.
func NewTxStarter(db *sqlx.DB) TxStarter {
	return dbTxStarter{db: db}
}

func (s dbTxStarter) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
