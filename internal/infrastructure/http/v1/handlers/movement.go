package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"invenda/internal/core/id"
	"invenda/internal/domain/ledger"
	"invenda/internal/infrastructure/http/v1/dto"
)

// MovementHandler exposes the movement ledger read side. Movements are
// written only by the document services; there is no create endpoint.
type MovementHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *ledger.Service) *MovementHandler {
	return &MovementHandler{BaseHandler: base, service: service}
}

// Kardex handles GET /movements/kardex/:productId - the ordered
// movement history for one product with period totals.
func (h *MovementHandler) Kardex(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	filter := ledger.KardexFilter{
		ProductID: productID,
		Limit:     h.ParseIntQuery(c, "limit", 100),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		if parsed, err := id.Parse(warehouseID); err == nil {
			filter.WarehouseID = &parsed
		}
	}
	if direction := c.Query("direction"); direction != "" {
		d := ledger.Direction(direction)
		filter.Direction = &d
	}
	if reason := c.Query("reason"); reason != "" {
		r := ledger.Reason(reason)
		filter.Reason = &r
	}
	if fromDate := c.Query("dateFrom"); fromDate != "" {
		if parsed, err := time.Parse(time.RFC3339, fromDate); err == nil {
			filter.FromDate = &parsed
		}
	}
	if toDate := c.Query("dateTo"); toDate != "" {
		if parsed, err := time.Parse(time.RFC3339, toDate); err == nil {
			filter.ToDate = &parsed
		}
	}

	kardex, err := h.service.GetKardex(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromKardex(kardex))
}

// ByReference handles GET /movements/by-reference/:type/:id - every
// movement a document recorded, in entry order.
func (h *MovementHandler) ByReference(c *gin.Context) {
	refID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.GetByReference(
		c.Request.Context(), ledger.ReferenceType(c.Param("type")), refID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.MovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromMovement(m)
	}

	h.OK(c, dto.MovementListResponse{Items: items, Count: len(items)})
}

// RegisterRoutes registers movement routes.
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/kardex/:productId", h.Kardex)
	rg.GET("/by-reference/:type/:id", h.ByReference)
}
