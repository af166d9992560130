package warehouse

import (
	"context"

	"invenda/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// GetDefault retrieves the tenant's default warehouse.
	GetDefault(ctx context.Context) (*Warehouse, error)
}
