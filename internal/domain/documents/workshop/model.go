// Package workshop provides the workshop Order document: a repair or
// service job that consumes parts from stock as work progresses and is
// billed through a generated sale.
package workshop

import (
	"context"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Order represents a workshop order. Unlike the other documents, its
// stock effects happen while the order is open: adding a part records
// an outbound movement immediately, removing one reverses it. Closing
// the order generates a draft sale that bills the consumed parts and
// the labor without touching stock again.
type Order struct {
	entity.Document

	CustomerID  id.ID  `db:"customer_id" json:"customerId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Subject     string `db:"subject" json:"subject,omitempty"`

	// SaleID links the billing sale once generated.
	SaleID *id.ID `db:"sale_id" json:"saleId,omitempty"`

	Parts []Part  `db:"-" json:"parts"`
	Labor []Labor `db:"-" json:"labor"`
}

// Part is a consumed stock item. UnitCost is the cost the consumption
// movement recorded; SalePrice is what the customer is billed.
type Part struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID     `db:"product_id" json:"productId"`
	Quantity  types.Qty `db:"quantity" json:"quantity"`

	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	SalePrice types.Money `db:"sale_price" json:"salePrice"`
}

// Labor is a billed work line. It never touches stock.
type Labor struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Description string      `db:"description" json:"description"`
	Hours       types.Qty   `db:"hours" json:"hours"`
	Rate        types.Money `db:"rate" json:"rate"`
	Amount      types.Money `db:"amount" json:"amount"`
}

// New creates a new open workshop order.
func New(tenantID, customerID, warehouseID id.ID) *Order {
	return &Order{
		Document:    entity.NewDocument(tenantID),
		CustomerID:  customerID,
		WarehouseID: warehouseID,
		Parts:       make([]Part, 0),
		Labor:       make([]Labor, 0),
	}
}

// AddLabor adds a labor line.
func (o *Order) AddLabor(description string, hours types.Qty, rate types.Money) {
	o.Labor = append(o.Labor, Labor{
		LineID:      id.New(),
		LineNo:      len(o.Labor) + 1,
		Description: description,
		Hours:       hours,
		Rate:        rate,
		Amount:      hours.Mul(rate),
	})
}

// FindPart returns the part with the given line ID, or nil.
func (o *Order) FindPart(lineID id.ID) *Part {
	for i := range o.Parts {
		if o.Parts[i].LineID == lineID {
			return &o.Parts[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if id.IsNil(o.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	return nil
}
