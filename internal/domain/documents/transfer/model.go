// Package transfer provides the warehouse Transfer document: stock
// moved between two warehouses in two phases (send, receive).
package transfer

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Transfer represents a warehouse transfer. Sending records outbound
// movements at the source warehouse costed at the running average;
// receiving records inbound movements at the destination at the exact
// cost captured on send, so the transfer never changes product value.
type Transfer struct {
	entity.Document

	FromWarehouseID id.ID `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID `db:"to_warehouse_id" json:"toWarehouseId"`

	TotalQuantity types.Qty `db:"total_quantity" json:"totalQuantity"`

	Lines []Line `db:"-" json:"lines"`
}

// Line represents one transferred product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID     `db:"product_id" json:"productId"`
	Quantity  types.Qty `db:"quantity" json:"quantity"`
}

// New creates a new draft transfer.
func New(tenantID, fromWarehouseID, toWarehouseID id.ID) *Transfer {
	return &Transfer{
		Document:        entity.NewDocument(tenantID),
		FromWarehouseID: fromWarehouseID,
		ToWarehouseID:   toWarehouseID,
		TotalQuantity:   decimal.Zero,
		Lines:           make([]Line, 0),
	}
}

// AddLine adds a line and recalculates the total.
func (t *Transfer) AddLine(productID id.ID, quantity types.Qty) {
	t.Lines = append(t.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
	})

	t.TotalQuantity = decimal.Zero
	for _, line := range t.Lines {
		t.TotalQuantity = t.TotalQuantity.Add(line.Quantity)
	}
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.FromWarehouseID) {
		return apperror.NewValidation("source warehouse is required").
			WithDetail("field", "fromWarehouseId")
	}

	if id.IsNil(t.ToWarehouseID) {
		return apperror.NewValidation("destination warehouse is required").
			WithDetail("field", "toWarehouseId")
	}

	if t.FromWarehouseID == t.ToWarehouseID {
		return apperror.NewValidation("source and destination warehouses must differ").
			WithDetail("field", "toWarehouseId")
	}

	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range t.Lines {
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
	}

	return nil
}
