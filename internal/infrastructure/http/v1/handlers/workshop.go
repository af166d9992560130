package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/workshop"
	"invenda/internal/infrastructure/http/v1/dto"
)

// WorkshopHandler handles HTTP requests for workshop orders. Orders
// have no delete: once parts were consumed the order stays on record.
type WorkshopHandler struct {
	*BaseHandler
	service *workshop.Service
}

// NewWorkshopHandler creates a new workshop handler.
func NewWorkshopHandler(base *BaseHandler, service *workshop.Service) *WorkshopHandler {
	return &WorkshopHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/workshop-orders.
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req dto.CreateWorkshopOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity(h.TenantID(c))
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromWorkshopOrder(doc))
}

// Get handles GET /documents/workshop-orders/:id.
func (h *WorkshopHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromWorkshopOrder(doc))
}

// Update handles PUT /documents/workshop-orders/:id. Only header
// fields and labor lines change here; parts go through AddPart.
func (h *WorkshopHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateWorkshopOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromWorkshopOrder(doc))
}

// AddPart handles POST /documents/workshop-orders/:id/parts - consumes
// the part from stock immediately at current average cost.
func (h *WorkshopHandler) AddPart(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddPartRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id format"))
		return
	}

	part, err := h.service.AddPart(c.Request.Context(), docID, productID, req.Quantity, req.SalePrice)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromWorkshopPart(part))
}

// RemovePart handles DELETE /documents/workshop-orders/:id/parts/:lineId -
// returns the part to stock at the cost it was consumed at.
func (h *WorkshopHandler) RemovePart(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}

	if err := h.service.RemovePart(c.Request.Context(), docID, lineID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// GenerateSale handles POST /documents/workshop-orders/:id/generate-sale -
// produces the billing sale for parts and labor and confirms the order.
func (h *WorkshopHandler) GenerateSale(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	saleDoc, err := h.service.GenerateSale(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(saleDoc))
}

// List handles GET /documents/workshop-orders.
func (h *WorkshopHandler) List(c *gin.Context) {
	filter := workshop.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if customerID := c.Query("customerId"); customerID != "" {
		if parsed, err := id.Parse(customerID); err == nil {
			filter.CustomerID = &parsed
		}
	}
	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.WorkshopOrderResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromWorkshopOrder(doc)
	}

	h.OK(c, dto.WorkshopOrderListResponse{
		Items:      items,
		TotalCount: int(result.TotalCount),
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers workshop order routes.
func (h *WorkshopHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/parts", h.AddPart)
	rg.DELETE("/:id/parts/:lineId", h.RemovePart)
	rg.POST("/:id/generate-sale", h.GenerateSale)
}
