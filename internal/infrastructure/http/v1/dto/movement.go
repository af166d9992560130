package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/ledger"
)

// MovementResponse represents one immutable ledger entry.
type MovementResponse struct {
	ID      string `json:"id"`
	EntryNo int64  `json:"entryNo"`
	Number  string `json:"number"`

	Direction string `json:"direction"`
	Reason    string `json:"reason"`

	ReferenceType string `json:"referenceType,omitempty"`
	ReferenceID   string `json:"referenceId,omitempty"`

	ProductID   string `json:"productId"`
	WarehouseID string `json:"warehouseId"`

	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	TotalCost decimal.Decimal `json:"totalCost"`

	PreviousStock decimal.Decimal `json:"previousStock"`
	NewStock      decimal.Decimal `json:"newStock"`

	UserID    string    `json:"userId,omitempty"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromMovement converts domain entity to response DTO.
func FromMovement(m *ledger.Movement) *MovementResponse {
	resp := &MovementResponse{
		ID:            m.ID.String(),
		EntryNo:       m.EntryNo,
		Number:        m.Number,
		Direction:     string(m.Direction),
		Reason:        string(m.Reason),
		ReferenceType: string(m.ReferenceType),
		ProductID:     m.ProductID.String(),
		WarehouseID:   m.WarehouseID.String(),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Date:          m.Date,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
	if !id.IsNil(m.ReferenceID) {
		resp.ReferenceID = m.ReferenceID.String()
	}
	if !id.IsNil(m.UserID) {
		resp.UserID = m.UserID.String()
	}
	return resp
}

// KardexResponse is the ordered movement history for one product with
// period totals.
type KardexResponse struct {
	ProductID string              `json:"productId"`
	Movements []*MovementResponse `json:"movements"`
	TotalIn   decimal.Decimal     `json:"totalIn"`
	TotalOut  decimal.Decimal     `json:"totalOut"`
}

// FromKardex converts the kardex projection to response DTO.
func FromKardex(k *ledger.Kardex) *KardexResponse {
	movements := make([]*MovementResponse, len(k.Movements))
	for i, m := range k.Movements {
		movements[i] = FromMovement(m)
	}
	return &KardexResponse{
		ProductID: k.ProductID.String(),
		Movements: movements,
		TotalIn:   k.TotalIn,
		TotalOut:  k.TotalOut,
	}
}

// MovementListResponse represents a list of movements.
type MovementListResponse struct {
	Items []*MovementResponse `json:"items"`
	Count int                 `json:"count"`
}
