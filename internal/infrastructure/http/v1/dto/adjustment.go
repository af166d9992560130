package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/adjustment"
)

// --- Request DTOs ---

// CreateAdjustmentRequest represents a request to create an adjustment.
type CreateAdjustmentRequest struct {
	Number      string                  `json:"number,omitempty"`
	Date        *time.Time              `json:"date,omitempty"`
	WarehouseID string                  `json:"warehouseId" binding:"required"`
	Reason      string                  `json:"reason,omitempty"`
	Comment     string                  `json:"comment,omitempty"`
	Lines       []AdjustmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AdjustmentLineRequest represents a line in create/update requests.
// Delta is signed; unitCost values positive deltas only.
type AdjustmentLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Delta     decimal.Decimal `json:"delta" binding:"required"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// ToEntity converts request to domain entity.
func (r *CreateAdjustmentRequest) ToEntity(tenantID id.ID) *adjustment.Adjustment {
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := adjustment.New(tenantID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Reason = r.Reason
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Delta, line.UnitCost)
	}

	return doc
}

// UpdateAdjustmentRequest represents a request to update a draft adjustment.
type UpdateAdjustmentRequest struct {
	Date        *time.Time              `json:"date,omitempty"`
	WarehouseID *string                 `json:"warehouseId,omitempty"`
	Reason      *string                 `json:"reason,omitempty"`
	Comment     *string                 `json:"comment,omitempty"`
	Lines       []AdjustmentLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateAdjustmentRequest) ApplyTo(doc *adjustment.Adjustment) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.Reason != nil {
		doc.Reason = *r.Reason
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]adjustment.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Delta, line.UnitCost)
		}
	}
}

// --- Response DTOs ---

// AdjustmentResponse represents an adjustment in API responses.
type AdjustmentResponse struct {
	ID           string                   `json:"id"`
	Number       string                   `json:"number"`
	Date         time.Time                `json:"date"`
	Status       string                   `json:"status"`
	WarehouseID  string                   `json:"warehouseId"`
	Reason       string                   `json:"reason,omitempty"`
	Comment      string                   `json:"comment,omitempty"`
	Lines        []AdjustmentLineResponse `json:"lines,omitempty"`
	DeletionMark bool                     `json:"deletionMark,omitempty"`
	Version      int                      `json:"version"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

// AdjustmentLineResponse represents a line in API responses.
type AdjustmentLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Delta     decimal.Decimal `json:"delta"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// FromAdjustment converts domain entity to response DTO.
func FromAdjustment(doc *adjustment.Adjustment) *AdjustmentResponse {
	resp := &AdjustmentResponse{
		ID:           doc.ID.String(),
		Number:       doc.Number,
		Date:         doc.Date,
		Status:       string(doc.Status),
		WarehouseID:  doc.WarehouseID.String(),
		Reason:       doc.Reason,
		Comment:      doc.Comment,
		DeletionMark: doc.DeletionMark,
		Version:      doc.Version,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	resp.Lines = make([]AdjustmentLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = AdjustmentLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Delta:     line.Delta,
			UnitCost:  line.UnitCost,
		}
	}

	return resp
}

// AdjustmentListResponse represents a list of adjustments.
type AdjustmentListResponse struct {
	Items      []*AdjustmentResponse `json:"items"`
	TotalCount int                   `json:"totalCount"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
}
