package models

import "time"

// Service is a bookable catalog entry. Price and duration are copied onto
// reservation items at booking time; historical rows never re-read the
// catalog.
type Service struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Price       int64     `db:"price" json:"price"` // minor currency units
	DurationMin int       `db:"duration_min" json:"duration_min"`
	LastStart   TimeOfDay `db:"last_start" json:"last_start"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
