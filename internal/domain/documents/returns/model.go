// Package returns provides the Return document: goods going back to a
// supplier or coming back from a customer.
package returns

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Kind distinguishes the two return flows.
type Kind string

const (
	// KindSupplier sends goods back to a supplier (stock goes out).
	KindSupplier Kind = "supplier"
	// KindCustomer takes goods back from a customer (stock comes in).
	KindCustomer Kind = "customer"
)

// Return represents a return document. Approving a supplier return
// records outbound movements costed at the running average; approving
// a customer return records inbound movements at the line's unit cost,
// normally the cost the goods originally left at.
type Return struct {
	entity.Document

	Kind           Kind  `db:"kind" json:"kind"`
	CounterpartyID id.ID `db:"counterparty_id" json:"counterpartyId"`
	WarehouseID    id.ID `db:"warehouse_id" json:"warehouseId"`

	// SourceDocumentID optionally links the purchase or sale being
	// returned against.
	SourceDocumentID *id.ID `db:"source_document_id" json:"sourceDocumentId,omitempty"`

	TotalQuantity types.Qty   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line represents one returned product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID     `db:"product_id" json:"productId"`
	Quantity  types.Qty `db:"quantity" json:"quantity"`

	// UnitCost values customer returns. Supplier returns ignore it and
	// cost at the running average.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// New creates a new draft return.
func New(tenantID id.ID, kind Kind, counterpartyID, warehouseID id.ID) *Return {
	return &Return{
		Document:       entity.NewDocument(tenantID),
		Kind:           kind,
		CounterpartyID: counterpartyID,
		WarehouseID:    warehouseID,
		TotalQuantity:  decimal.Zero,
		TotalAmount:    decimal.Zero,
		Lines:          make([]Line, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (r *Return) AddLine(productID id.ID, quantity types.Qty, unitCost types.Money) {
	r.Lines = append(r.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(r.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
	})

	r.TotalQuantity = decimal.Zero
	r.TotalAmount = decimal.Zero
	for _, line := range r.Lines {
		r.TotalQuantity = r.TotalQuantity.Add(line.Quantity)
		r.TotalAmount = r.TotalAmount.Add(line.Quantity.Mul(line.UnitCost))
	}
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if r.Kind != KindSupplier && r.Kind != KindCustomer {
		return apperror.NewValidation("kind must be supplier or customer").
			WithDetail("field", "kind")
	}

	if id.IsNil(r.CounterpartyID) {
		return apperror.NewValidation("counterparty is required").
			WithDetail("field", "counterpartyId")
	}

	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
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
		if r.Kind == KindCustomer && line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
