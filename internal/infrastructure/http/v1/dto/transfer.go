package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/transfer"
)

// --- Request DTOs ---

// CreateTransferRequest represents a request to create a transfer.
type CreateTransferRequest struct {
	Number          string                `json:"number,omitempty"`
	Date            *time.Time            `json:"date,omitempty"`
	FromWarehouseID string                `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string                `json:"toWarehouseId" binding:"required"`
	Comment         string                `json:"comment,omitempty"`
	Lines           []TransferLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// TransferLineRequest represents a line in create/update requests.
type TransferLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateTransferRequest) ToEntity(tenantID id.ID) *transfer.Transfer {
	fromID, _ := id.Parse(r.FromWarehouseID)
	toID, _ := id.Parse(r.ToWarehouseID)

	doc := transfer.New(tenantID, fromID, toID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity)
	}

	return doc
}

// UpdateTransferRequest represents a request to update a draft transfer.
type UpdateTransferRequest struct {
	Date            *time.Time            `json:"date,omitempty"`
	FromWarehouseID *string               `json:"fromWarehouseId,omitempty"`
	ToWarehouseID   *string               `json:"toWarehouseId,omitempty"`
	Comment         *string               `json:"comment,omitempty"`
	Lines           []TransferLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateTransferRequest) ApplyTo(doc *transfer.Transfer) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.FromWarehouseID != nil {
		fromID, _ := id.Parse(*r.FromWarehouseID)
		doc.FromWarehouseID = fromID
	}
	if r.ToWarehouseID != nil {
		toID, _ := id.Parse(*r.ToWarehouseID)
		doc.ToWarehouseID = toID
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]transfer.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity)
		}
	}
}

// --- Response DTOs ---

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID              string                 `json:"id"`
	Number          string                 `json:"number"`
	Date            time.Time              `json:"date"`
	Status          string                 `json:"status"`
	FromWarehouseID string                 `json:"fromWarehouseId"`
	ToWarehouseID   string                 `json:"toWarehouseId"`
	TotalQuantity   decimal.Decimal        `json:"totalQuantity"`
	Comment         string                 `json:"comment,omitempty"`
	Lines           []TransferLineResponse `json:"lines,omitempty"`
	DeletionMark    bool                   `json:"deletionMark,omitempty"`
	Version         int                    `json:"version"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// TransferLineResponse represents a line in API responses.
type TransferLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// FromTransfer converts domain entity to response DTO.
func FromTransfer(doc *transfer.Transfer) *TransferResponse {
	resp := &TransferResponse{
		ID:              doc.ID.String(),
		Number:          doc.Number,
		Date:            doc.Date,
		Status:          string(doc.Status),
		FromWarehouseID: doc.FromWarehouseID.String(),
		ToWarehouseID:   doc.ToWarehouseID.String(),
		TotalQuantity:   doc.TotalQuantity,
		Comment:         doc.Comment,
		DeletionMark:    doc.DeletionMark,
		Version:         doc.Version,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}

	resp.Lines = make([]TransferLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = TransferLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		}
	}

	return resp
}

// TransferListResponse represents a list of transfers.
type TransferListResponse struct {
	Items      []*TransferResponse `json:"items"`
	TotalCount int                 `json:"totalCount"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}
