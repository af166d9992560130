package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"invenda/internal/core/id"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/transfer"
	"invenda/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for Transfer documents.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity(h.TenantID(c))
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromTransfer(doc))
}

// Get handles GET /documents/transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(doc))
}

// Update handles PUT /documents/transfers/:id.
func (h *TransferHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTransferRequest
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

	h.OK(c, dto.FromTransfer(doc))
}

// Delete handles DELETE /documents/transfers/:id (draft only).
func (h *TransferHandler) Delete(c *gin.Context) {
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

func (h *TransferHandler) transition(c *gin.Context, op func(c *gin.Context, docID id.ID) error) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := op(c, docID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(doc))
}

// Send handles POST /documents/transfers/:id/send - stock leaves the
// source warehouse and goes in transit.
func (h *TransferHandler) Send(c *gin.Context) {
	h.transition(c, func(c *gin.Context, docID id.ID) error {
		return h.service.Send(c.Request.Context(), docID)
	})
}

// Receive handles POST /documents/transfers/:id/receive - the goods
// arrive at the destination at the cost captured on send.
func (h *TransferHandler) Receive(c *gin.Context) {
	h.transition(c, func(c *gin.Context, docID id.ID) error {
		return h.service.Receive(c.Request.Context(), docID)
	})
}

// Cancel handles POST /documents/transfers/:id/cancel.
func (h *TransferHandler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, docID id.ID) error {
		return h.service.Cancel(c.Request.Context(), docID)
	})
}

// List handles GET /documents/transfers.
func (h *TransferHandler) List(c *gin.Context) {
	filter := transfer.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if fromID := c.Query("fromWarehouseId"); fromID != "" {
		if parsed, err := id.Parse(fromID); err == nil {
			filter.FromWarehouseID = &parsed
		}
	}
	if toID := c.Query("toWarehouseId"); toID != "" {
		if parsed, err := id.Parse(toID); err == nil {
			filter.ToWarehouseID = &parsed
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

	items := make([]*dto.TransferResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromTransfer(doc)
	}

	h.OK(c, dto.TransferListResponse{
		Items:      items,
		TotalCount: int(result.TotalCount),
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/send", h.Send)
	rg.POST("/:id/receive", h.Receive)
	rg.POST("/:id/cancel", h.Cancel)
}
