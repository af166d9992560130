package adjustment

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

// NumberPrefix for adjustment document numbers.
const NumberPrefix = "ADJ"

// Service provides business operations for adjustment documents.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Adjustment]
}

// NewService creates a new adjustment service.
func NewService(repo Repository, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Adjustment](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Adjustment] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new draft adjustment.
func (s *Service) Create(ctx context.Context, doc *Adjustment) error {
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

	logger.Info(ctx, "adjustment created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an adjustment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
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

// Update updates a draft adjustment.
func (s *Service) Update(ctx context.Context, doc *Adjustment) error {
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

// Delete soft-deletes a draft adjustment.
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

// Confirm applies the adjustment: positive deltas record inbound
// movements at the line's unit cost, negative deltas record outbound
// movements costed at the running average.
func (s *Service) Confirm(ctx context.Context, docID id.ID) error {
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
			return apperror.NewDocumentState("only draft adjustments can be confirmed").
				WithDetail("status", string(doc.Status))
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if err := doc.Transition(entity.StatusConfirmed); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, line := range doc.Lines {
			req := &ledger.Request{
				ProductID:     line.ProductID,
				WarehouseID:   doc.WarehouseID,
				Quantity:      line.Delta.Abs(),
				ReferenceType: ledger.RefAdjustment,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
				Notes:         doc.Reason,
			}
			if line.Delta.IsPositive() {
				req.Direction = ledger.DirectionIn
				req.Reason = ledger.ReasonAdjustmentIn
				req.UnitCost = line.UnitCost
			} else {
				req.Direction = ledger.DirectionOut
				req.Reason = ledger.ReasonAdjustmentOut
			}

			if _, err := s.ledger.RecordMovement(ctx, req); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "adjustment confirmed", "id", docID)
	return nil
}

// List retrieves adjustments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error) {
	return s.repo.List(ctx, filter)
}
