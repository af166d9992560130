// Package purchase provides the Purchase document: goods received from
// a supplier into a warehouse.
package purchase

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Purchase represents a purchase document. Receiving it records one
// inbound ledger movement per line at the line's unit cost.
type Purchase struct {
	entity.Document

	SupplierID  id.ID `db:"supplier_id" json:"supplierId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// SupplierDocNumber is the supplier's invoice reference
	SupplierDocNumber string `db:"supplier_doc_number" json:"supplierDocNumber,omitempty"`

	// Totals (calculated from lines)
	TotalQuantity types.Qty   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one received product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Qty   `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Amount   types.Money `db:"amount" json:"amount"`
}

// New creates a new draft purchase document.
func New(tenantID, supplierID, warehouseID id.ID) *Purchase {
	return &Purchase{
		Document:      entity.NewDocument(tenantID),
		SupplierID:    supplierID,
		WarehouseID:   warehouseID,
		TotalQuantity: decimal.Zero,
		TotalAmount:   decimal.Zero,
		Lines:         make([]Line, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (p *Purchase) AddLine(productID id.ID, quantity types.Qty, unitCost types.Money) {
	line := Line{
		LineID:    id.New(),
		LineNo:    len(p.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		Amount:    quantity.Mul(unitCost),
	}

	p.Lines = append(p.Lines, line)
	p.recalculateTotals()
}

func (p *Purchase) recalculateTotals() {
	p.TotalQuantity = decimal.Zero
	p.TotalAmount = decimal.Zero

	for _, line := range p.Lines {
		p.TotalQuantity = p.TotalQuantity.Add(line.Quantity)
		p.TotalAmount = p.TotalAmount.Add(line.Amount)
	}
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range p.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
