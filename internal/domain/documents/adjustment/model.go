// Package adjustment provides the stock Adjustment document:
// inventory count corrections and write-offs.
package adjustment

import (
	"context"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Adjustment represents a stock adjustment document. Each line carries
// a signed delta: positive deltas record inbound movements at the
// line's unit cost, negative deltas record outbound movements at the
// product's running average.
type Adjustment struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Reason      string `db:"reason" json:"reason,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line represents one product correction.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Delta is the signed stock change. Never zero.
	Delta types.Qty `db:"delta" json:"delta"`

	// UnitCost values positive deltas. Ignored for negative deltas,
	// which are always costed at the running average.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// New creates a new draft adjustment.
func New(tenantID, warehouseID id.ID) *Adjustment {
	return &Adjustment{
		Document:    entity.NewDocument(tenantID),
		WarehouseID: warehouseID,
		Lines:       make([]Line, 0),
	}
}

// AddLine adds a correction line.
func (a *Adjustment) AddLine(productID id.ID, delta types.Qty, unitCost types.Money) {
	a.Lines = append(a.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(a.Lines) + 1,
		ProductID: productID,
		Delta:     delta,
		UnitCost:  unitCost,
	})
}

// Validate implements entity.Validatable.
func (a *Adjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(a.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	if len(a.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range a.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Delta.Equal(decimal.Zero) {
			return apperror.NewValidation("delta cannot be zero").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Delta.IsPositive() && line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
