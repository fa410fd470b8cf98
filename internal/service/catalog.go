package service

import (
	"context"
	"fmt"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
)

// ServiceStore is the catalog read surface.
type ServiceStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Service, error)
}

// Catalog resolves requested service ids against the live catalog.
type Catalog struct {
	store ServiceStore
}

func NewCatalog(store ServiceStore) *Catalog {
	return &Catalog{store: store}
}

// Lookup returns whatever catalog rows exist for ids, active or not, missing
// ids silently absent. Used to re-read booking constraints for services
// already snapshotted onto a reservation; a since-deactivated service must
// not block editing the appointment that holds it.
func (c *Catalog) Lookup(ctx context.Context, ids []string) ([]models.Service, error) {
	return c.store.GetByIDs(ctx, ids)
}

// Resolve maps ids to active catalog entries, preserving request order.
// All-or-nothing: one unknown or inactive id fails the whole call.
func (c *Catalog) Resolve(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("no_services", "at least one service id is required")
	}

	found, err := c.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Service, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	resolved := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || !s.Active {
			return nil, apperr.Validation("unknown_service", fmt.Sprintf("unknown or inactive service %q", id))
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}
