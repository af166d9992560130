package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/core/sequence"
	"invenda/internal/core/types"
	"invenda/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	allocator sequence.Allocator
}

// NewService creates a new Product service.
func NewService(repo Repository, allocator sequence.Allocator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		Allocator:  allocator,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		allocator:      allocator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkSKUUnique)

	return svc
}

// prepareForCreate handles code generation and SKU uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	if item.Code == "" {
		code, err := s.allocator.Next(ctx, sequence.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}

	return s.checkSKUUnique(ctx, item)
}

// checkSKUUnique rejects a duplicate SKU within the tenant.
func (s *Service) checkSKUUnique(ctx context.Context, item *Product) error {
	existing, err := s.repo.FindBySKU(ctx, item.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != item.ID {
		return apperror.NewDuplicate("product", "sku", item.SKU)
	}
	return nil
}

// --- Entity-specific methods ---

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// FindLowStock retrieves products with stock below minimum threshold.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}

// AdjustReservation changes the reserved quantity for a product.
// Stock and cost stay untouched: reservations are a sales-side concern.
func (s *Service) AdjustReservation(ctx context.Context, productID id.ID, delta types.Qty) error {
	p, err := s.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	p.ReservedStock = p.ReservedStock.Add(delta)
	if p.ReservedStock.IsNegative() {
		p.ReservedStock = decimal.Zero
	}
	p.RecomputeAvailable()

	return s.Update(ctx, p)
}
