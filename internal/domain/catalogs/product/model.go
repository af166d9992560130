// Package product provides the Product catalog.
// Products carry the stock and costing aggregate that the movement
// ledger mutates; catalog management never touches those fields directly.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Type defines the product category.
type Type string

const (
	TypeGood    Type = "good"    // physical item, stock-tracked
	TypeService Type = "service" // labor or fee, never stock-tracked
)

// Product represents a sellable or consumable item.
type Product struct {
	entity.Catalog

	// SKU is the stock-keeping unit (unique within tenant)
	SKU string `db:"sku" json:"sku"`

	// Type defines whether the item is stock-tracked
	Type Type `db:"type" json:"type"`

	// Unit is the unit of measure label (pcs, kg, l)
	Unit string `db:"unit" json:"unit"`

	// SalePrice is the default selling price
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// --- Stock aggregate. Mutated exclusively by the movement ledger. ---

	// CurrentStock is the on-hand quantity (signed; negative only when
	// AllowNegativeStock is set)
	CurrentStock types.Qty `db:"current_stock" json:"currentStock"`

	// ReservedStock is quantity committed to open documents
	ReservedStock types.Qty `db:"reserved_stock" json:"reservedStock"`

	// AvailableStock = CurrentStock - ReservedStock, recomputed on write
	AvailableStock types.Qty `db:"available_stock" json:"availableStock"`

	// MinStock/MaxStock are alerting thresholds; the ledger ignores them
	MinStock types.Qty `db:"min_stock" json:"minStock"`
	MaxStock types.Qty `db:"max_stock" json:"maxStock"`

	// AverageCost is the weighted-average unit cost, recomputed on every
	// inbound movement
	AverageCost types.Money `db:"average_cost" json:"averageCost"`

	// AllowNegativeStock disables the non-negative stock guard
	AllowNegativeStock bool `db:"allow_negative_stock" json:"allowNegativeStock"`

	// Active products appear in sales flows
	Active bool `db:"active" json:"active"`
}

// New creates a new Product with required fields.
func New(tenantID id.ID, sku, name string, productType Type) *Product {
	return &Product{
		Catalog:        entity.NewCatalog(tenantID, sku, name),
		SKU:            sku,
		Type:           productType,
		Unit:           "pcs",
		SalePrice:      decimal.Zero,
		CurrentStock:   decimal.Zero,
		ReservedStock:  decimal.Zero,
		AvailableStock: decimal.Zero,
		MinStock:       decimal.Zero,
		MaxStock:       decimal.Zero,
		AverageCost:    decimal.Zero,
		Active:         true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.Type != TypeGood && p.Type != TypeService {
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}

	if p.MinStock.IsNegative() || p.MaxStock.IsNegative() {
		return apperror.NewValidation("stock thresholds cannot be negative").
			WithDetail("field", "minStock")
	}

	if p.Type == TypeService && p.AllowNegativeStock {
		return apperror.NewValidation("services are not stock-tracked").
			WithDetail("field", "allowNegativeStock")
	}

	return nil
}

// IsStockTracked returns true for physical goods.
func (p *Product) IsStockTracked() bool {
	return p.Type == TypeGood
}

// RecomputeAvailable refreshes the derived available quantity.
func (p *Product) RecomputeAvailable() {
	p.AvailableStock = p.CurrentStock.Sub(p.ReservedStock)
}

// IsBelowMin reports whether on-hand stock dropped below the minimum
// threshold (consumed by alerting, never by the ledger).
func (p *Product) IsBelowMin() bool {
	return p.MinStock.IsPositive() && p.CurrentStock.LessThan(p.MinStock)
}
