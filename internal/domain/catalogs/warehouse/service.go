package warehouse

import (
	"context"
	"fmt"
	"time"

	"invenda/internal/core/apperror"
	"invenda/internal/core/sequence"
	"invenda/internal/domain"
)

// Service provides business logic for the Warehouse catalog.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo      Repository
	allocator sequence.Allocator
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, allocator sequence.Allocator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		Allocator:  allocator,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		allocator:      allocator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, item *Warehouse) error {
	if item.Code == "" {
		code, err := s.allocator.Next(ctx, sequence.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}

// GetDefault retrieves the tenant's default warehouse.
func (s *Service) GetDefault(ctx context.Context) (*Warehouse, error) {
	w, err := s.repo.GetDefault(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("warehouse", "default")
		}
		return nil, err
	}
	return w, nil
}
