package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/returns"
)

// --- Request DTOs ---

// CreateReturnRequest represents a request to create a return.
type CreateReturnRequest struct {
	Number           string              `json:"number,omitempty"`
	Date             *time.Time          `json:"date,omitempty"`
	Kind             string              `json:"kind" binding:"required,oneof=supplier customer"`
	CounterpartyID   string              `json:"counterpartyId" binding:"required"`
	WarehouseID      string              `json:"warehouseId" binding:"required"`
	SourceDocumentID string              `json:"sourceDocumentId,omitempty"`
	Comment          string              `json:"comment,omitempty"`
	Lines            []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReturnLineRequest represents a line in create/update requests.
// UnitCost values customer returns; supplier returns cost at the
// running average.
type ReturnLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// ToEntity converts request to domain entity.
func (r *CreateReturnRequest) ToEntity(tenantID id.ID) *returns.Return {
	counterpartyID, _ := id.Parse(r.CounterpartyID)
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := returns.New(tenantID, returns.Kind(r.Kind), counterpartyID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.SourceDocumentID != "" {
		if sourceID, err := id.Parse(r.SourceDocumentID); err == nil {
			doc.SourceDocumentID = &sourceID
		}
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity, line.UnitCost)
	}

	return doc
}

// UpdateReturnRequest represents a request to update a draft return.
type UpdateReturnRequest struct {
	Date           *time.Time          `json:"date,omitempty"`
	CounterpartyID *string             `json:"counterpartyId,omitempty"`
	WarehouseID    *string             `json:"warehouseId,omitempty"`
	Comment        *string             `json:"comment,omitempty"`
	Lines          []ReturnLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateReturnRequest) ApplyTo(doc *returns.Return) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.CounterpartyID != nil {
		counterpartyID, _ := id.Parse(*r.CounterpartyID)
		doc.CounterpartyID = counterpartyID
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]returns.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.UnitCost)
		}
	}
}

// --- Response DTOs ---

// ReturnResponse represents a return in API responses.
type ReturnResponse struct {
	ID               string               `json:"id"`
	Number           string               `json:"number"`
	Date             time.Time            `json:"date"`
	Status           string               `json:"status"`
	Kind             string               `json:"kind"`
	CounterpartyID   string               `json:"counterpartyId"`
	WarehouseID      string               `json:"warehouseId"`
	SourceDocumentID string               `json:"sourceDocumentId,omitempty"`
	TotalQuantity    decimal.Decimal      `json:"totalQuantity"`
	TotalAmount      decimal.Decimal      `json:"totalAmount"`
	Comment          string               `json:"comment,omitempty"`
	Lines            []ReturnLineResponse `json:"lines,omitempty"`
	DeletionMark     bool                 `json:"deletionMark,omitempty"`
	Version          int                  `json:"version"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// ReturnLineResponse represents a line in API responses.
type ReturnLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// FromReturn converts domain entity to response DTO.
func FromReturn(doc *returns.Return) *ReturnResponse {
	resp := &ReturnResponse{
		ID:             doc.ID.String(),
		Number:         doc.Number,
		Date:           doc.Date,
		Status:         string(doc.Status),
		Kind:           string(doc.Kind),
		CounterpartyID: doc.CounterpartyID.String(),
		WarehouseID:    doc.WarehouseID.String(),
		TotalQuantity:  doc.TotalQuantity,
		TotalAmount:    doc.TotalAmount,
		Comment:        doc.Comment,
		DeletionMark:   doc.DeletionMark,
		Version:        doc.Version,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.SourceDocumentID != nil {
		resp.SourceDocumentID = doc.SourceDocumentID.String()
	}

	resp.Lines = make([]ReturnLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = ReturnLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		}
	}

	return resp
}

// ReturnListResponse represents a list of returns.
type ReturnListResponse struct {
	Items      []*ReturnResponse `json:"items"`
	TotalCount int               `json:"totalCount"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}
