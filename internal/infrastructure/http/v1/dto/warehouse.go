package dto

import (
	"invenda/internal/core/id"
	"invenda/internal/domain/catalogs/warehouse"
)

// CreateWarehouseRequest represents a request to create a warehouse.
type CreateWarehouseRequest struct {
	Code      string `json:"code,omitempty"`
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateWarehouseRequest) ToEntity(tenantID id.ID) *warehouse.Warehouse {
	w := warehouse.New(tenantID, r.Code, r.Name)
	w.Address = r.Address
	w.IsDefault = r.IsDefault
	return w
}

// UpdateWarehouseRequest represents a request to update a warehouse.
type UpdateWarehouseRequest struct {
	Name      *string `json:"name,omitempty"`
	Address   *string `json:"address,omitempty"`
	IsDefault *bool   `json:"isDefault,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateWarehouseRequest) ApplyTo(w *warehouse.Warehouse) {
	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Address != nil {
		w.Address = *r.Address
	}
	if r.IsDefault != nil {
		w.IsDefault = *r.IsDefault
	}
	if r.Active != nil {
		w.Active = *r.Active
	}
}

// WarehouseResponse represents a warehouse in API responses.
type WarehouseResponse struct {
	CatalogResponse

	Address   string `json:"address,omitempty"`
	IsDefault bool   `json:"isDefault"`
	Active    bool   `json:"active"`
}

// FromWarehouse converts domain entity to response DTO.
func FromWarehouse(w *warehouse.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		CatalogResponse: FromCatalog(w.Catalog),
		Address:         w.Address,
		IsDefault:       w.IsDefault,
		Active:          w.Active,
	}
}

// WarehouseListResponse represents a list of warehouses.
type WarehouseListResponse struct {
	Items      []*WarehouseResponse `json:"items"`
	TotalCount int                  `json:"totalCount"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}
