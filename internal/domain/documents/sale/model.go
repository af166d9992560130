// Package sale provides the Sale document: goods and services sold to
// a customer.
package sale

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Sale represents a sale document. Confirming it records one outbound
// ledger movement per stock-tracked line, costed at the product's
// running average. Cancelling a confirmed sale records opposite
// inbound movements at the originally recorded cost.
type Sale struct {
	entity.Document

	CustomerID  id.ID `db:"customer_id" json:"customerId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Totals (calculated from lines)
	TotalQuantity types.Qty   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`

	// Table part: sold items
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one sold item. ProductID may be nil for description
// lines (labor snapshotted from a workshop order, fees); those lines
// never touch stock.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   *id.ID `db:"product_id" json:"productId,omitempty"`
	Description string `db:"description" json:"description,omitempty"`

	Quantity  types.Qty   `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Amount    types.Money `db:"amount" json:"amount"`

	// Fulfilled marks a line whose stock effect was already recorded by
	// the originating process (workshop part consumption); confirm
	// skips it.
	Fulfilled bool `db:"fulfilled" json:"fulfilled"`
}

// New creates a new draft sale.
func New(tenantID, customerID, warehouseID id.ID) *Sale {
	return &Sale{
		Document:      entity.NewDocument(tenantID),
		CustomerID:    customerID,
		WarehouseID:   warehouseID,
		TotalQuantity: decimal.Zero,
		TotalAmount:   decimal.Zero,
		Lines:         make([]Line, 0),
	}
}

// AddLine adds a product line and recalculates totals.
func (s *Sale) AddLine(productID id.ID, quantity types.Qty, unitPrice types.Money) {
	pid := productID
	line := Line{
		LineID:    id.New(),
		LineNo:    len(s.Lines) + 1,
		ProductID: &pid,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    quantity.Mul(unitPrice),
	}

	s.Lines = append(s.Lines, line)
	s.recalculateTotals()
}

// AddFulfilledLine adds a product line whose stock effect was already
// recorded elsewhere. Confirm bills it but records no movement.
func (s *Sale) AddFulfilledLine(productID id.ID, quantity types.Qty, unitPrice types.Money) {
	s.AddLine(productID, quantity, unitPrice)
	s.Lines[len(s.Lines)-1].Fulfilled = true
}

// AddDescriptionLine adds a non-stock line (labor, fee).
func (s *Sale) AddDescriptionLine(description string, quantity types.Qty, unitPrice types.Money) {
	line := Line{
		LineID:      id.New(),
		LineNo:      len(s.Lines) + 1,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
	}

	s.Lines = append(s.Lines, line)
	s.recalculateTotals()
}

func (s *Sale) recalculateTotals() {
	s.TotalQuantity = decimal.Zero
	s.TotalAmount = decimal.Zero

	for _, line := range s.Lines {
		s.TotalQuantity = s.TotalQuantity.Add(line.Quantity)
		s.TotalAmount = s.TotalAmount.Add(line.Amount)
	}
}

// StockLines returns the lines that move stock on confirmation.
func (s *Sale) StockLines() []Line {
	out := make([]Line, 0, len(s.Lines))
	for _, line := range s.Lines {
		if line.ProductID != nil && !line.Fulfilled {
			out = append(out, line)
		}
	}
	return out
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(s.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if id.IsNil(s.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range s.Lines {
		if line.ProductID == nil && line.Description == "" {
			return apperror.NewValidation("line needs a product or a description").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
