package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"invenda/internal/core/id"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/consumption"
	"invenda/internal/infrastructure/http/v1/dto"
)

// ConsumptionHandler handles HTTP requests for internal consumption
// documents.
type ConsumptionHandler struct {
	*BaseHandler
	service *consumption.Service
}

// NewConsumptionHandler creates a new consumption handler.
func NewConsumptionHandler(base *BaseHandler, service *consumption.Service) *ConsumptionHandler {
	return &ConsumptionHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/consumptions.
func (h *ConsumptionHandler) Create(c *gin.Context) {
	var req dto.CreateConsumptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity(h.TenantID(c))
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromConsumption(doc))
}

// Get handles GET /documents/consumptions/:id.
func (h *ConsumptionHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConsumption(doc))
}

// Update handles PUT /documents/consumptions/:id.
func (h *ConsumptionHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateConsumptionRequest
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

	h.OK(c, dto.FromConsumption(doc))
}

// Delete handles DELETE /documents/consumptions/:id (draft only).
func (h *ConsumptionHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Approve handles POST /documents/consumptions/:id/approve - writes
// the stock off at current average cost.
func (h *ConsumptionHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Approve(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConsumption(doc))
}

// List handles GET /documents/consumptions.
func (h *ConsumptionHandler) List(c *gin.Context) {
	filter := consumption.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

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

	items := make([]*dto.ConsumptionResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromConsumption(doc)
	}

	h.OK(c, dto.ConsumptionListResponse{
		Items:      items,
		TotalCount: int(result.TotalCount),
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers consumption routes.
func (h *ConsumptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/approve", h.Approve)
}
