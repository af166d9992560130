// Package consumption provides the internal Consumption document:
// stock used up inside the business (samples, repairs, spoilage).
package consumption

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Consumption represents an internal consumption document. Approving
// it records one outbound movement per line, costed at the product's
// running average.
type Consumption struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Purpose     string `db:"purpose" json:"purpose,omitempty"`

	TotalQuantity types.Qty `db:"total_quantity" json:"totalQuantity"`

	Lines []Line `db:"-" json:"lines"`
}

// Line represents one consumed product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID     `db:"product_id" json:"productId"`
	Quantity  types.Qty `db:"quantity" json:"quantity"`
}

// New creates a new draft consumption.
func New(tenantID, warehouseID id.ID) *Consumption {
	return &Consumption{
		Document:      entity.NewDocument(tenantID),
		WarehouseID:   warehouseID,
		TotalQuantity: decimal.Zero,
		Lines:         make([]Line, 0),
	}
}

// AddLine adds a line and recalculates the total.
func (c *Consumption) AddLine(productID id.ID, quantity types.Qty) {
	c.Lines = append(c.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(c.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
	})

	c.TotalQuantity = decimal.Zero
	for _, line := range c.Lines {
		c.TotalQuantity = c.TotalQuantity.Add(line.Quantity)
	}
}

// Validate implements entity.Validatable.
func (c *Consumption) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(c.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if len(c.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range c.Lines {
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
