package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/consumption"
)

// --- Request DTOs ---

// CreateConsumptionRequest represents a request to create a consumption.
type CreateConsumptionRequest struct {
	Number      string                   `json:"number,omitempty"`
	Date        *time.Time               `json:"date,omitempty"`
	WarehouseID string                   `json:"warehouseId" binding:"required"`
	Purpose     string                   `json:"purpose,omitempty"`
	Comment     string                   `json:"comment,omitempty"`
	Lines       []ConsumptionLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ConsumptionLineRequest represents a line in create/update requests.
type ConsumptionLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateConsumptionRequest) ToEntity(tenantID id.ID) *consumption.Consumption {
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := consumption.New(tenantID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Purpose = r.Purpose
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity)
	}

	return doc
}

// UpdateConsumptionRequest represents a request to update a draft consumption.
type UpdateConsumptionRequest struct {
	Date        *time.Time               `json:"date,omitempty"`
	WarehouseID *string                  `json:"warehouseId,omitempty"`
	Purpose     *string                  `json:"purpose,omitempty"`
	Comment     *string                  `json:"comment,omitempty"`
	Lines       []ConsumptionLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateConsumptionRequest) ApplyTo(doc *consumption.Consumption) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.Purpose != nil {
		doc.Purpose = *r.Purpose
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]consumption.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity)
		}
	}
}

// --- Response DTOs ---

// ConsumptionResponse represents a consumption in API responses.
type ConsumptionResponse struct {
	ID            string                    `json:"id"`
	Number        string                    `json:"number"`
	Date          time.Time                 `json:"date"`
	Status        string                    `json:"status"`
	WarehouseID   string                    `json:"warehouseId"`
	Purpose       string                    `json:"purpose,omitempty"`
	TotalQuantity decimal.Decimal           `json:"totalQuantity"`
	Comment       string                    `json:"comment,omitempty"`
	Lines         []ConsumptionLineResponse `json:"lines,omitempty"`
	DeletionMark  bool                      `json:"deletionMark,omitempty"`
	Version       int                       `json:"version"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

// ConsumptionLineResponse represents a line in API responses.
type ConsumptionLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// FromConsumption converts domain entity to response DTO.
func FromConsumption(doc *consumption.Consumption) *ConsumptionResponse {
	resp := &ConsumptionResponse{
		ID:            doc.ID.String(),
		Number:        doc.Number,
		Date:          doc.Date,
		Status:        string(doc.Status),
		WarehouseID:   doc.WarehouseID.String(),
		Purpose:       doc.Purpose,
		TotalQuantity: doc.TotalQuantity,
		Comment:       doc.Comment,
		DeletionMark:  doc.DeletionMark,
		Version:       doc.Version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}

	resp.Lines = make([]ConsumptionLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = ConsumptionLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		}
	}

	return resp
}

// ConsumptionListResponse represents a list of consumptions.
type ConsumptionListResponse struct {
	Items      []*ConsumptionResponse `json:"items"`
	TotalCount int                    `json:"totalCount"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
}
