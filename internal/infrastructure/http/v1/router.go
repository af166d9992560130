// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	appctx "invenda/internal/core/context"
	"invenda/internal/core/entity"
	"invenda/internal/core/sequence"
	"invenda/internal/core/tenant"
	"invenda/internal/domain"
	"invenda/internal/domain/auth"
	"invenda/internal/domain/catalogs/counterparty"
	"invenda/internal/domain/catalogs/product"
	"invenda/internal/domain/catalogs/warehouse"
	"invenda/internal/domain/documents/adjustment"
	"invenda/internal/domain/documents/consumption"
	"invenda/internal/domain/documents/purchase"
	"invenda/internal/domain/documents/returns"
	"invenda/internal/domain/documents/sale"
	"invenda/internal/domain/documents/transfer"
	"invenda/internal/domain/documents/workshop"
	"invenda/internal/domain/ledger"
	"invenda/internal/infrastructure/http/v1/handlers"
	"invenda/internal/infrastructure/http/v1/middleware"
	"invenda/internal/infrastructure/storage/postgres"
	"invenda/internal/infrastructure/storage/postgres/catalog_repo"
	"invenda/internal/infrastructure/storage/postgres/document_repo"
	"invenda/internal/infrastructure/storage/postgres/ledger_repo"
	"invenda/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the shared connection pool; tenants share one schema and
	// are separated by the tenant_id column.
	Pool *pgxpool.Pool

	// TxManager wraps the pool for transactional work.
	TxManager *postgres.TxManager

	// TenantRegistry resolves the X-Tenant-ID header.
	TenantRegistry tenant.Registry

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Allocator generates document and catalog numbers
	Allocator sequence.Allocator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	healthHandler.RegisterRoutes(router.Group("/health"))

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes - need TenantDB middleware BEFORE auth
		registerAuthRoutes(v1, cfg)

		// Protected endpoints - TenantDB runs first, then Auth
		protected := v1.Group("")
		protected.Use(middleware.TenantDB(cfg.TenantRegistry, cfg.Pool, cfg.TxManager))
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
		registerMovementRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required, but need tenant for DB access)
	public := rg.Group("/auth")
	public.Use(middleware.TenantDB(cfg.TenantRegistry, cfg.Pool, cfg.TxManager))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)

	// Protected auth endpoints (JWT required)
	protected := rg.Group("/auth")
	protected.Use(middleware.TenantDB(cfg.TenantRegistry, cfg.Pool, cfg.TxManager))
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/users", middleware.RequireRole("admin"), authHandler.ListUsers)
	protected.GET("/users/:id", middleware.RequireRole("admin"), authHandler.GetUser)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalogs")
	baseHandler := handlers.NewBaseHandler()

	// Repos are stateless; the pool and TxManager come from the request
	// context per tenant.

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo()
		service := product.NewService(repo, cfg.Allocator)
		handler := handlers.NewProductHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/products"))
	}

	// --- WAREHOUSES ---
	{
		repo := catalog_repo.NewWarehouseRepo()
		service := warehouse.NewService(repo, cfg.Allocator)
		handler := handlers.NewWarehouseHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/warehouses"))
	}

	// --- COUNTERPARTIES ---
	{
		repo := catalog_repo.NewCounterpartyRepo()
		service := counterparty.NewService(repo, cfg.Allocator)
		handler := handlers.NewCounterpartyHandler(baseHandler, service)
		handler.RegisterRoutes(catalogs.Group("/counterparties"))
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docs := rg.Group("/documents")
	baseHandler := handlers.NewBaseHandler()

	// Shared dependencies: every document posts through the same ledger
	// service so entry ordering has one authority.
	ledgerService := ledger.NewService(ledger_repo.NewLedgerRepo(), cfg.Allocator, nil)
	productRepo := catalog_repo.NewProductRepo()

	// --- PURCHASES ---
	{
		service := purchase.NewService(document_repo.NewPurchaseRepo(), ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *purchase.Purchase) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewPurchaseHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/purchases"))
	}

	// --- SALES ---
	saleService := sale.NewService(document_repo.NewSaleRepo(), productRepo, ledgerService, cfg.Allocator, nil)
	{
		auditHooks(saleService.Hooks(), func(doc *sale.Sale) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewSaleHandler(baseHandler, saleService)
		handler.RegisterRoutes(docs.Group("/sales"))
	}

	// --- ADJUSTMENTS ---
	{
		service := adjustment.NewService(document_repo.NewAdjustmentRepo(), ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *adjustment.Adjustment) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewAdjustmentHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/adjustments"))
	}

	// --- TRANSFERS ---
	{
		service := transfer.NewService(document_repo.NewTransferRepo(), ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *transfer.Transfer) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewTransferHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/transfers"))
	}

	// --- RETURNS ---
	{
		service := returns.NewService(document_repo.NewReturnRepo(), ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *returns.Return) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewReturnsHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/returns"))
	}

	// --- CONSUMPTIONS ---
	{
		service := consumption.NewService(document_repo.NewConsumptionRepo(), ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *consumption.Consumption) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewConsumptionHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/consumptions"))
	}

	// --- WORKSHOP ORDERS ---
	{
		service := workshop.NewService(document_repo.NewWorkshopRepo(), saleService, ledgerService, cfg.Allocator, nil)
		auditHooks(service.Hooks(), func(doc *workshop.Order) *entity.BaseDocument { return &doc.BaseDocument })
		handler := handlers.NewWorkshopHandler(baseHandler, service)
		handler.RegisterRoutes(docs.Group("/workshop-orders"))
	}
}

// registerMovementRoutes registers movement ledger read endpoints.
func registerMovementRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	service := ledger.NewService(ledger_repo.NewLedgerRepo(), cfg.Allocator, nil)
	handler := handlers.NewMovementHandler(baseHandler, service)
	handler.RegisterRoutes(rg.Group("/movements"))
}

// auditHooks stamps CreatedBy/UpdatedBy from the authenticated user.
func auditHooks[T any](hooks *domain.HookRegistry[T], base func(T) *entity.BaseDocument) {
	hooks.OnBeforeCreate(func(ctx context.Context, doc T) error {
		b := base(doc)
		b.CreatedBy = appctx.GetUserID(ctx)
		b.UpdatedBy = b.CreatedBy
		return nil
	})
	hooks.OnBeforeUpdate(func(ctx context.Context, doc T) error {
		base(doc).UpdatedBy = appctx.GetUserID(ctx)
		return nil
	})
}
