// Package ledger provides the inventory movement ledger and
// weighted-average costing engine.
//
// Every stock-affecting business process funnels through RecordMovement.
// The ledger is the only writer of product stock and cost, and the only
// creator of movement rows; it always runs inside the caller's
// transaction, never its own.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/core/types"
)

// Direction of a stock movement.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Reason is the closed vocabulary of movement causes. Reporting and
// reversal logic match on it exhaustively, so free text is not allowed.
type Reason string

const (
	ReasonPurchaseReceipt     Reason = "purchase_receipt"
	ReasonSale                Reason = "sale"
	ReasonSaleReversal        Reason = "sale_reversal"
	ReasonAdjustmentIn        Reason = "adjustment_in"
	ReasonAdjustmentOut       Reason = "adjustment_out"
	ReasonTransferSend        Reason = "transfer_send"
	ReasonTransferReceive     Reason = "transfer_receive"
	ReasonSupplierReturn      Reason = "supplier_return"
	ReasonCustomerReturn      Reason = "customer_return"
	ReasonInternalConsumption Reason = "internal_consumption"
	ReasonWorkshopPart        Reason = "workshop_part"
)

// reasonDirections maps each reason to its only legal direction.
var reasonDirections = map[Reason]Direction{
	ReasonPurchaseReceipt:     DirectionIn,
	ReasonSale:                DirectionOut,
	ReasonSaleReversal:        DirectionIn,
	ReasonAdjustmentIn:        DirectionIn,
	ReasonAdjustmentOut:       DirectionOut,
	ReasonTransferSend:        DirectionOut,
	ReasonTransferReceive:     DirectionIn,
	ReasonSupplierReturn:      DirectionOut,
	ReasonCustomerReturn:      DirectionIn,
	ReasonInternalConsumption: DirectionOut,
	ReasonWorkshopPart:        DirectionOut,
}

// DirectionFor returns the legal direction for a reason.
func DirectionFor(reason Reason) (Direction, bool) {
	d, ok := reasonDirections[reason]
	return d, ok
}

// ReferenceType identifies the originating document kind.
type ReferenceType string

const (
	RefPurchase    ReferenceType = "purchase"
	RefSale        ReferenceType = "sale"
	RefAdjustment  ReferenceType = "adjustment"
	RefTransfer    ReferenceType = "transfer"
	RefReturn      ReferenceType = "return"
	RefConsumption ReferenceType = "consumption"
	RefWorkshop    ReferenceType = "workshop"
)

// Movement is an immutable ledger entry. Created once by RecordMovement,
// never updated or deleted; reversals are new opposite-direction rows.
type Movement struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"-"`

	// EntryNo is the authoritative total order per tenant, assigned by
	// the store on insert. The business-visible Number is a display
	// artifact only.
	EntryNo int64 `db:"entry_no" json:"entryNo"`

	// Number is the human-readable sequence (MOV-2026-00001)
	Number string `db:"number" json:"number"`

	Direction Direction `db:"direction" json:"direction"`
	Reason    Reason    `db:"reason" json:"reason"`

	// Reference to the originating document, when any
	ReferenceType ReferenceType `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID   id.ID         `db:"reference_id" json:"referenceId,omitempty"`

	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Quantity is always positive; sign is carried by Direction
	Quantity  types.Qty   `db:"quantity" json:"quantity"`
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	// Stock snapshots taken at write time make the ledger self-auditing:
	// replaying all movements for a product reproduces CurrentStock.
	PreviousStock types.Qty `db:"previous_stock" json:"previousStock"`
	NewStock      types.Qty `db:"new_stock" json:"newStock"`

	UserID id.ID `db:"user_id" json:"userId"`

	// Date is the business date, distinct from the write timestamp
	Date  time.Time `db:"date" json:"date"`
	Notes string    `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SignedQuantity returns quantity with sign applied by direction.
func (m *Movement) SignedQuantity() types.Qty {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Request describes one movement to record. The ledger fills in
// identity, number, cost basis for outbound moves, and stock snapshots.
type Request struct {
	ProductID   id.ID
	WarehouseID id.ID

	Direction Direction
	Reason    Reason

	// Quantity must be strictly positive
	Quantity types.Qty

	// UnitCost is required for inbound movements. Outbound movements are
	// always costed at the product's current average; a caller-supplied
	// value is ignored.
	UnitCost types.Money

	ReferenceType ReferenceType
	ReferenceID   id.ID

	UserID id.ID
	Date   time.Time
	Notes  string
}

// Validate checks request invariants. Failures are programming errors:
// orchestrators validate user input before building a Request.
func (r *Request) Validate(ctx context.Context) error {
	if id.IsNil(r.ProductID) {
		return apperror.NewInvalidMovement("product id is required")
	}

	if r.Direction != DirectionIn && r.Direction != DirectionOut {
		return apperror.NewInvalidMovement("direction must be in or out").
			WithDetail("direction", string(r.Direction))
	}

	want, ok := DirectionFor(r.Reason)
	if !ok {
		return apperror.NewInvalidMovement("unknown movement reason").
			WithDetail("reason", string(r.Reason))
	}
	if want != r.Direction {
		return apperror.NewInvalidMovement("reason does not match direction").
			WithDetail("reason", string(r.Reason)).
			WithDetail("direction", string(r.Direction))
	}

	if !r.Quantity.IsPositive() {
		return apperror.NewInvalidMovement("quantity must be positive").
			WithDetail("quantity", r.Quantity.String())
	}

	if r.Direction == DirectionIn && r.UnitCost.IsNegative() {
		return apperror.NewInvalidMovement("unit cost cannot be negative").
			WithDetail("unitCost", r.UnitCost.String())
	}

	if r.Date.IsZero() {
		return apperror.NewInvalidMovement("movement date is required")
	}

	return nil
}

// KardexFilter selects movements for the kardex projection.
type KardexFilter struct {
	ProductID   id.ID
	WarehouseID *id.ID
	Direction   *Direction
	Reason      *Reason
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Kardex is the ordered movement history for one product, with period
// totals for reporting.
type Kardex struct {
	ProductID id.ID       `json:"productId"`
	Movements []*Movement `json:"movements"`

	TotalIn  types.Qty `json:"totalIn"`
	TotalOut types.Qty `json:"totalOut"`
}

// NewKardex assembles the projection and its totals.
func NewKardex(productID id.ID, movements []*Movement) *Kardex {
	k := &Kardex{
		ProductID: productID,
		Movements: movements,
		TotalIn:   decimal.Zero,
		TotalOut:  decimal.Zero,
	}
	for _, m := range movements {
		if m.Direction == DirectionIn {
			k.TotalIn = k.TotalIn.Add(m.Quantity)
		} else {
			k.TotalOut = k.TotalOut.Add(m.Quantity)
		}
	}
	return k
}
