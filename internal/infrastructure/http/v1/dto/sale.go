package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/id"
	"invenda/internal/domain/documents/sale"
)

// --- Request DTOs ---

// CreateSaleRequest represents a request to create a sale.
type CreateSaleRequest struct {
	Number      string            `json:"number,omitempty"`
	Date        *time.Time        `json:"date,omitempty"`
	CustomerID  string            `json:"customerId" binding:"required"`
	WarehouseID string            `json:"warehouseId" binding:"required"`
	Comment     string            `json:"comment,omitempty"`
	Lines       []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SaleLineRequest represents a line in create/update requests.
// Either productId or description must be set; description lines never
// touch stock.
type SaleLineRequest struct {
	ProductID   string          `json:"productId,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func applySaleLines(doc *sale.Sale, lines []SaleLineRequest) {
	for _, line := range lines {
		if line.ProductID != "" {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.UnitPrice)
		} else {
			doc.AddDescriptionLine(line.Description, line.Quantity, line.UnitPrice)
		}
	}
}

// ToEntity converts request to domain entity.
func (r *CreateSaleRequest) ToEntity(tenantID id.ID) *sale.Sale {
	customerID, _ := id.Parse(r.CustomerID)
	warehouseID, _ := id.Parse(r.WarehouseID)

	doc := sale.New(tenantID, customerID, warehouseID)
	doc.Number = r.Number
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment

	applySaleLines(doc, r.Lines)

	return doc
}

// UpdateSaleRequest represents a request to update a draft sale.
type UpdateSaleRequest struct {
	Date        *time.Time        `json:"date,omitempty"`
	CustomerID  *string           `json:"customerId,omitempty"`
	WarehouseID *string           `json:"warehouseId,omitempty"`
	Comment     *string           `json:"comment,omitempty"`
	Lines       []SaleLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateSaleRequest) ApplyTo(doc *sale.Sale) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.CustomerID != nil {
		customerID, _ := id.Parse(*r.CustomerID)
		doc.CustomerID = customerID
	}
	if r.WarehouseID != nil {
		warehouseID, _ := id.Parse(*r.WarehouseID)
		doc.WarehouseID = warehouseID
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]sale.Line, 0, len(r.Lines))
		applySaleLines(doc, r.Lines)
	}
}

// --- Response DTOs ---

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	Date          time.Time          `json:"date"`
	Status        string             `json:"status"`
	CustomerID    string             `json:"customerId"`
	WarehouseID   string             `json:"warehouseId"`
	TotalQuantity decimal.Decimal    `json:"totalQuantity"`
	TotalAmount   decimal.Decimal    `json:"totalAmount"`
	Comment       string             `json:"comment,omitempty"`
	Lines         []SaleLineResponse `json:"lines,omitempty"`
	DeletionMark  bool               `json:"deletionMark,omitempty"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// SaleLineResponse represents a line in API responses.
type SaleLineResponse struct {
	LineID      string          `json:"lineId"`
	LineNo      int             `json:"lineNo"`
	ProductID   string          `json:"productId,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	Fulfilled   bool            `json:"fulfilled,omitempty"`
}

// FromSale converts domain entity to response DTO.
func FromSale(doc *sale.Sale) *SaleResponse {
	resp := &SaleResponse{
		ID:            doc.ID.String(),
		Number:        doc.Number,
		Date:          doc.Date,
		Status:        string(doc.Status),
		CustomerID:    doc.CustomerID.String(),
		WarehouseID:   doc.WarehouseID.String(),
		TotalQuantity: doc.TotalQuantity,
		TotalAmount:   doc.TotalAmount,
		Comment:       doc.Comment,
		DeletionMark:  doc.DeletionMark,
		Version:       doc.Version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}

	resp.Lines = make([]SaleLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		lr := SaleLineResponse{
			LineID:      line.LineID.String(),
			LineNo:      line.LineNo,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
			Fulfilled:   line.Fulfilled,
		}
		if line.ProductID != nil {
			lr.ProductID = line.ProductID.String()
		}
		resp.Lines[i] = lr
	}

	return resp
}

// SaleListResponse represents a list of sales.
type SaleListResponse struct {
	Items      []*SaleResponse `json:"items"`
	TotalCount int             `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}
