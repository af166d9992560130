package dto

import (
	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	Code               string           `json:"code,omitempty"`
	SKU                string           `json:"sku" binding:"required"`
	Name               string           `json:"name" binding:"required"`
	Type               string           `json:"type" binding:"required,oneof=good service"`
	Unit               string           `json:"unit,omitempty"`
	SalePrice          decimal.Decimal  `json:"salePrice"`
	MinStock           *decimal.Decimal `json:"minStock,omitempty"`
	MaxStock           *decimal.Decimal `json:"maxStock,omitempty"`
	AllowNegativeStock bool             `json:"allowNegativeStock,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateProductRequest) ToEntity(tenantID id.ID) *product.Product {
	p := product.New(tenantID, r.SKU, r.Name, product.Type(r.Type))
	p.Code = r.Code
	p.SalePrice = r.SalePrice
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	if r.MaxStock != nil {
		p.MaxStock = *r.MaxStock
	}
	p.AllowNegativeStock = r.AllowNegativeStock
	return p
}

// UpdateProductRequest represents a request to update a product.
// Stock and cost fields are absent on purpose: only the movement
// ledger writes them.
type UpdateProductRequest struct {
	SKU                *string          `json:"sku,omitempty"`
	Name               *string          `json:"name,omitempty"`
	Unit               *string          `json:"unit,omitempty"`
	SalePrice          *decimal.Decimal `json:"salePrice,omitempty"`
	MinStock           *decimal.Decimal `json:"minStock,omitempty"`
	MaxStock           *decimal.Decimal `json:"maxStock,omitempty"`
	AllowNegativeStock *bool            `json:"allowNegativeStock,omitempty"`
	Active             *bool            `json:"active,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.SalePrice != nil {
		p.SalePrice = *r.SalePrice
	}
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	if r.MaxStock != nil {
		p.MaxStock = *r.MaxStock
	}
	if r.AllowNegativeStock != nil {
		p.AllowNegativeStock = *r.AllowNegativeStock
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
}

// AdjustReservationRequest changes the reserved quantity by a signed delta.
type AdjustReservationRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
}

// --- Response DTOs ---

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	CatalogResponse

	SKU                string          `json:"sku"`
	Type               string          `json:"type"`
	Unit               string          `json:"unit"`
	SalePrice          decimal.Decimal `json:"salePrice"`
	CurrentStock       decimal.Decimal `json:"currentStock"`
	ReservedStock      decimal.Decimal `json:"reservedStock"`
	AvailableStock     decimal.Decimal `json:"availableStock"`
	MinStock           decimal.Decimal `json:"minStock"`
	MaxStock           decimal.Decimal `json:"maxStock"`
	AverageCost        decimal.Decimal `json:"averageCost"`
	AllowNegativeStock bool            `json:"allowNegativeStock"`
	Active             bool            `json:"active"`
}

// FromProduct converts domain entity to response DTO.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		CatalogResponse:    FromCatalog(p.Catalog),
		SKU:                p.SKU,
		Type:               string(p.Type),
		Unit:               p.Unit,
		SalePrice:          p.SalePrice,
		CurrentStock:       p.CurrentStock,
		ReservedStock:      p.ReservedStock,
		AvailableStock:     p.AvailableStock,
		MinStock:           p.MinStock,
		MaxStock:           p.MaxStock,
		AverageCost:        p.AverageCost,
		AllowNegativeStock: p.AllowNegativeStock,
		Active:             p.Active,
	}
}

// ProductListResponse represents a list of products.
type ProductListResponse struct {
	Items      []*ProductResponse `json:"items"`
	TotalCount int                `json:"totalCount"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}
