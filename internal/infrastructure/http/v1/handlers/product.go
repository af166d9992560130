package handlers

import (
	"github.com/gin-gonic/gin"

	"invenda/internal/domain"
	"invenda/internal/domain/catalogs/product"
	"invenda/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for the Product catalog.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalogs/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item := req.ToEntity(h.TenantID(c))
	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromProduct(item))
}

// Get handles GET /catalogs/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}

// GetBySKU handles GET /catalogs/products/sku/:sku.
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	item, err := h.service.FindBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}

// Update handles PUT /catalogs/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(item)

	if err := h.service.Update(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}

// Delete handles DELETE /catalogs/products/:id (soft delete).
func (h *ProductHandler) Delete(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetDeletionMark handles POST /catalogs/products/:id/deletion-mark.
func (h *ProductHandler) SetDeletionMark(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), itemID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}

// AdjustReservation handles POST /catalogs/products/:id/reservation.
func (h *ProductHandler) AdjustReservation(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AdjustReservation(c.Request.Context(), itemID, req.Delta); err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(item))
}

func (h *ProductHandler) listFilter(c *gin.Context) domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	return filter
}

// List handles GET /catalogs/products.
func (h *ProductHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.listFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respondList(c, result)
}

// LowStock handles GET /catalogs/products/low-stock: products whose
// on-hand stock dropped below the minimum threshold.
func (h *ProductHandler) LowStock(c *gin.Context) {
	result, err := h.service.FindLowStock(c.Request.Context(), h.listFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respondList(c, result)
}

func (h *ProductHandler) respondList(c *gin.Context, result domain.ListResult[*product.Product]) {
	items := make([]*dto.ProductResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromProduct(item)
	}

	h.OK(c, dto.ProductListResponse{
		Items:      items,
		TotalCount: int(result.TotalCount),
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/low-stock", h.LowStock)
	rg.GET("/sku/:sku", h.GetBySKU)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/deletion-mark", h.SetDeletionMark)
	rg.POST("/:id/reservation", h.AdjustReservation)
}
