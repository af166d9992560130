package consumption

import (
	"context"
	"fmt"

	"invenda/internal/core/apperror"
	appctx "invenda/internal/core/context"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/sequence"
	"invenda/internal/core/tenant"
	"invenda/internal/core/tx"
	"invenda/internal/domain"
	"invenda/internal/domain/ledger"
	"invenda/pkg/logger"
)

// NumberPrefix for consumption document numbers.
const NumberPrefix = "CONS"

// Service provides business operations for consumption documents.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Consumption]
}

// NewService creates a new consumption service.
func NewService(repo Repository, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Consumption](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Consumption] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new draft consumption.
func (s *Service) Create(ctx context.Context, doc *Consumption) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.allocator.Next(ctx, sequence.DefaultConfig(NumberPrefix), nil, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.hooks.RunAfterCreate(ctx, doc)

	logger.Info(ctx, "consumption created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a consumption with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Consumption, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update updates a draft consumption.
func (s *Service) Update(ctx context.Context, doc *Consumption) error {
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a draft consumption.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}

	return s.repo.Delete(ctx, docID)
}

// Approve applies the consumption: one outbound movement per line,
// costed at the running average.
func (s *Service) Approve(ctx context.Context, docID id.ID) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	userID, _ := id.Parse(appctx.GetUserID(ctx))

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != entity.StatusDraft {
			return apperror.NewDocumentState("only draft consumptions can be approved").
				WithDetail("status", string(doc.Status))
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if err := doc.Transition(entity.StatusApproved); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, line := range doc.Lines {
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     line.ProductID,
				WarehouseID:   doc.WarehouseID,
				Direction:     ledger.DirectionOut,
				Reason:        ledger.ReasonInternalConsumption,
				Quantity:      line.Quantity,
				ReferenceType: ledger.RefConsumption,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
				Notes:         doc.Purpose,
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "consumption approved", "id", docID)
	return nil
}

// List retrieves consumptions with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Consumption], error) {
	return s.repo.List(ctx, filter)
}
