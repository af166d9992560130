package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/purchase"
)

// --- Request DTOs ---

// CreatePurchaseRequest represents a request to create a purchase.
type CreatePurchaseRequest struct {
	Number            string                `json:"number,omitempty"`
	Date              *time.Time            `json:"date,omitempty"`
	SupplierID        string                `json:"supplierId" binding:"required"`
	WarehouseID       string                `json:"warehouseId" binding:"required"`
	SupplierDocNumber string                `json:"supplierDocNumber,omitempty"`
	Comment           string                `json:"comment,omitempty"`
	Lines             []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseLineRequest represents a line in create/update requests.
type PurchaseLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseRequest) ToEntity(tenantID id.ID) *purchase.Purchase {
	supplierID, _ := id.Parse(r.SupplierID)
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := purchase.New(tenantID, supplierID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.SupplierDocNumber = r.SupplierDocNumber
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity, line.UnitCost)
	}

	return doc
}

// UpdatePurchaseRequest represents a request to update a draft purchase.
type UpdatePurchaseRequest struct {
	Date              *time.Time            `json:"date,omitempty"`
	SupplierID        *string               `json:"supplierId,omitempty"`
	WarehouseID       *string               `json:"warehouseId,omitempty"`
	SupplierDocNumber *string               `json:"supplierDocNumber,omitempty"`
	Comment           *string               `json:"comment,omitempty"`
	Lines             []PurchaseLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePurchaseRequest) ApplyTo(doc *purchase.Purchase) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.SupplierID != nil {
		supplierID, _ := id.Parse(*r.SupplierID)
		doc.SupplierID = supplierID
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.SupplierDocNumber != nil {
		doc.SupplierDocNumber = *r.SupplierDocNumber
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	// If lines are provided, rebuild them
	if r.Lines != nil {
		doc.Lines = make([]purchase.Line, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.UnitCost)
		}
	}
}

// --- Response DTOs ---

// PurchaseResponse represents a purchase in API responses.
type PurchaseResponse struct {
	ID                string                 `json:"id"`
	Number            string                 `json:"number"`
	Date              time.Time              `json:"date"`
	Status            string                 `json:"status"`
	SupplierID        string                 `json:"supplierId"`
	WarehouseID       string                 `json:"warehouseId"`
	SupplierDocNumber string                 `json:"supplierDocNumber,omitempty"`
	TotalQuantity     decimal.Decimal        `json:"totalQuantity"`
	TotalAmount       decimal.Decimal        `json:"totalAmount"`
	Comment           string                 `json:"comment,omitempty"`
	Lines             []PurchaseLineResponse `json:"lines,omitempty"`
	DeletionMark      bool                   `json:"deletionMark,omitempty"`
	Version           int                    `json:"version"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// PurchaseLineResponse represents a line in API responses.
type PurchaseLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	Amount    decimal.Decimal `json:"amount"`
}

// FromPurchase converts domain entity to response DTO.
func FromPurchase(doc *purchase.Purchase) *PurchaseResponse {
	resp := &PurchaseResponse{
		ID:                doc.ID.String(),
		Number:            doc.Number,
		Date:              doc.Date,
		Status:            string(doc.Status),
		SupplierID:        doc.SupplierID.String(),
		WarehouseID:       doc.WarehouseID.String(),
		SupplierDocNumber: doc.SupplierDocNumber,
		TotalQuantity:     doc.TotalQuantity,
		TotalAmount:       doc.TotalAmount,
		Comment:           doc.Comment,
		DeletionMark:      doc.DeletionMark,
		Version:           doc.Version,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}

	resp.Lines = make([]PurchaseLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = PurchaseLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
			Amount:    line.Amount,
		}
	}

	return resp
}

// PurchaseListResponse represents a list of purchases.
type PurchaseListResponse struct {
	Items      []*PurchaseResponse `json:"items"`
	TotalCount int                 `json:"totalCount"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}
