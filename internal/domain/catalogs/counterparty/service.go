package counterparty

import (
	"context"
	"fmt"
	"time"

	"invenda/internal/core/sequence"
	"invenda/internal/domain"
)

// Service provides business logic for the Counterparty catalog.
type Service struct {
	*domain.CatalogService[*Counterparty]
	repo      Repository
	allocator sequence.Allocator
}

// NewService creates a new Counterparty service.
func NewService(repo Repository, allocator sequence.Allocator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Counterparty]{
		Repo:       repo,
		Allocator:  allocator,
		EntityName: "counterparty",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		allocator:      allocator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, item *Counterparty) error {
	if item.Code == "" {
		code, err := s.allocator.Next(ctx, sequence.DefaultConfig("CP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}
