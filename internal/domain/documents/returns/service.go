package returns

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

// NumberPrefix for return document numbers.
const NumberPrefix = "RET"

// Service provides business operations for return documents.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Return]
}

// NewService creates a new return service.
func NewService(repo Repository, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Return](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Return] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new draft return.
func (s *Service) Create(ctx context.Context, doc *Return) error {
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

	logger.Info(ctx, "return created", "id", doc.ID, "number", doc.Number, "kind", doc.Kind)
	return nil
}

// GetByID retrieves a return with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Return, error) {
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

// Update updates a draft return.
func (s *Service) Update(ctx context.Context, doc *Return) error {
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

// Delete soft-deletes a draft return.
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

// Approve applies the return. Supplier returns record outbound
// movements costed at the running average; customer returns record
// inbound movements at the line's unit cost.
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
			return apperror.NewDocumentState("only draft returns can be approved").
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
			req := &ledger.Request{
				ProductID:     line.ProductID,
				WarehouseID:   doc.WarehouseID,
				Quantity:      line.Quantity,
				ReferenceType: ledger.RefReturn,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
			}
			if doc.Kind == KindSupplier {
				req.Direction = ledger.DirectionOut
				req.Reason = ledger.ReasonSupplierReturn
			} else {
				req.Direction = ledger.DirectionIn
				req.Reason = ledger.ReasonCustomerReturn
				req.UnitCost = line.UnitCost
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

	logger.Info(ctx, "return approved", "id", docID)
	return nil
}

// List retrieves returns with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	return s.repo.List(ctx, filter)
}
