package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/workshop"
)

// --- Request DTOs ---

// CreateWorkshopOrderRequest represents a request to open a workshop order.
// Parts are not accepted here: they enter through the add-part operation,
// which records their stock consumption.
type CreateWorkshopOrderRequest struct {
	Number      string                 `json:"number,omitempty"`
	Date        *time.Time             `json:"date,omitempty"`
	CustomerID  string                 `json:"customerId" binding:"required"`
	WarehouseID string                 `json:"warehouseId" binding:"required"`
	Subject     string                 `json:"subject,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Labor       []WorkshopLaborRequest `json:"labor,omitempty"`
}

// WorkshopLaborRequest represents a labor line in requests.
type WorkshopLaborRequest struct {
	Description string          `json:"description" binding:"required"`
	Hours       decimal.Decimal `json:"hours" binding:"required"`
	Rate        decimal.Decimal `json:"rate"`
}

// ToEntity converts request to domain entity.
func (r *CreateWorkshopOrderRequest) ToEntity(tenantID id.ID) *workshop.Order {
	customerID, _ := id.Parse(r.CustomerID)
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := workshop.New(tenantID, customerID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Subject = r.Subject
	doc.Comment = r.Comment

	for _, labor := range r.Labor {
		doc.AddLabor(labor.Description, labor.Hours, labor.Rate)
	}

	return doc
}

// UpdateWorkshopOrderRequest represents a request to update an open order.
type UpdateWorkshopOrderRequest struct {
	Date       *time.Time             `json:"date,omitempty"`
	CustomerID *string                `json:"customerId,omitempty"`
	Subject    *string                `json:"subject,omitempty"`
	Comment    *string                `json:"comment,omitempty"`
	Labor      []WorkshopLaborRequest `json:"labor,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateWorkshopOrderRequest) ApplyTo(doc *workshop.Order) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.CustomerID != nil {
		customerID, _ := id.Parse(*r.CustomerID)
		doc.CustomerID = customerID
	}
	if r.Subject != nil {
		doc.Subject = *r.Subject
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Labor != nil {
		doc.Labor = make([]workshop.Labor, 0, len(r.Labor))
		for _, labor := range r.Labor {
			doc.AddLabor(labor.Description, labor.Hours, labor.Rate)
		}
	}
}

// AddPartRequest consumes a part from stock onto the order.
type AddPartRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

// --- Response DTOs ---

// WorkshopOrderResponse represents a workshop order in API responses.
type WorkshopOrderResponse struct {
	ID           string                  `json:"id"`
	Number       string                  `json:"number"`
	Date         time.Time               `json:"date"`
	Status       string                  `json:"status"`
	CustomerID   string                  `json:"customerId"`
	WarehouseID  string                  `json:"warehouseId"`
	Subject      string                  `json:"subject,omitempty"`
	SaleID       string                  `json:"saleId,omitempty"`
	Comment      string                  `json:"comment,omitempty"`
	Parts        []WorkshopPartResponse  `json:"parts,omitempty"`
	Labor        []WorkshopLaborResponse `json:"labor,omitempty"`
	DeletionMark bool                    `json:"deletionMark,omitempty"`
	Version      int                     `json:"version"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// WorkshopPartResponse represents a consumed part in API responses.
type WorkshopPartResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

// WorkshopLaborResponse represents a labor line in API responses.
type WorkshopLaborResponse struct {
	LineID      string          `json:"lineId"`
	LineNo      int             `json:"lineNo"`
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// FromWorkshopOrder converts domain entity to response DTO.
func FromWorkshopOrder(doc *workshop.Order) *WorkshopOrderResponse {
	resp := &WorkshopOrderResponse{
		ID:           doc.ID.String(),
		Number:       doc.Number,
		Date:         doc.Date,
		Status:       string(doc.Status),
		CustomerID:   doc.CustomerID.String(),
		WarehouseID:  doc.WarehouseID.String(),
		Subject:      doc.Subject,
		Comment:      doc.Comment,
		DeletionMark: doc.DeletionMark,
		Version:      doc.Version,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if doc.SaleID != nil {
		resp.SaleID = doc.SaleID.String()
	}

	resp.Parts = make([]WorkshopPartResponse, len(doc.Parts))
	for i, part := range doc.Parts {
		resp.Parts[i] = WorkshopPartResponse{
			LineID:    part.LineID.String(),
			LineNo:    part.LineNo,
			ProductID: part.ProductID.String(),
			Quantity:  part.Quantity,
			UnitCost:  part.UnitCost,
			SalePrice: part.SalePrice,
		}
	}

	resp.Labor = make([]WorkshopLaborResponse, len(doc.Labor))
	for i, labor := range doc.Labor {
		resp.Labor[i] = WorkshopLaborResponse{
			LineID:      labor.LineID.String(),
			LineNo:      labor.LineNo,
			Description: labor.Description,
			Hours:       labor.Hours,
			Rate:        labor.Rate,
			Amount:      labor.Amount,
		}
	}

	return resp
}

// FromWorkshopPart converts one part line to response DTO.
func FromWorkshopPart(part *workshop.Part) *WorkshopPartResponse {
	return &WorkshopPartResponse{
		LineID:    part.LineID.String(),
		LineNo:    part.LineNo,
		ProductID: part.ProductID.String(),
		Quantity:  part.Quantity,
		UnitCost:  part.UnitCost,
		SalePrice: part.SalePrice,
	}
}

// WorkshopOrderListResponse represents a list of workshop orders.
type WorkshopOrderListResponse struct {
	Items      []*WorkshopOrderResponse `json:"items"`
	TotalCount int                      `json:"totalCount"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}
