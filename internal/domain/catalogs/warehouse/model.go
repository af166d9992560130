// Package warehouse provides the Warehouse catalog.
// Warehouses are provenance on movements: stock itself is a single
// per-product scalar, so a warehouse row carries no balance.
package warehouse

import (
	"context"

	"invenda/internal/core/entity"
	"invenda/internal/core/id"
)

// Warehouse represents a physical storage location.
type Warehouse struct {
	entity.Catalog

	// Address is the physical location
	Address string `db:"address" json:"address,omitempty"`

	// IsDefault marks the warehouse preselected in document forms
	IsDefault bool `db:"is_default" json:"isDefault"`

	Active bool `db:"active" json:"active"`
}

// New creates a new Warehouse.
func New(tenantID id.ID, code, name string) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}
