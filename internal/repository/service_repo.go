package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/salonkit/reserve-core/internal/models"
)

// ServiceRepo reads and writes catalog entries.
type ServiceRepo struct {
	db *sqlx.DB
}

func NewServiceRepo(db *sqlx.DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

// GetByIDs returns the catalog rows matching ids, active or not. Callers
// decide what a missing or inactive row means.
func (r *ServiceRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, category, price, duration_min, last_start, active, created_at, updated_at
		FROM services
		WHERE id = ANY($1)
	`

	var services []models.Service
	err := readWithRetry(ctx, func() error {
		services = services[:0]
		return r.db.SelectContext(ctx, &services, query, pq.Array(ids))
	})
	if err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	return services, nil
}

// Create inserts a catalog entry.
func (r *ServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	query := `
		INSERT INTO services (id, name, category, price, duration_min, last_start, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Category, svc.Price, svc.DurationMin, svc.LastStart, svc.Active, now,
	); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}
