package transfer

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

// NumberPrefix for transfer document numbers.
const NumberPrefix = "TR"

// Service provides business operations for transfer documents.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Transfer]
}

// NewService creates a new transfer service.
func NewService(repo Repository, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Transfer](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Transfer] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new draft transfer.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
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

	logger.Info(ctx, "transfer created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
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

// Update updates a draft transfer.
func (s *Service) Update(ctx context.Context, doc *Transfer) error {
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

// Delete soft-deletes a draft transfer.
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

// Send ships the transfer: one outbound movement per line at the
// source warehouse, costed at the running average. Stock leaves the
// source immediately and stays in transit until Receive.
func (s *Service) Send(ctx context.Context, docID id.ID) error {
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
			return apperror.NewDocumentState("only draft transfers can be sent").
				WithDetail("status", string(doc.Status))
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if err := doc.Transition(entity.StatusInTransit); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, line := range doc.Lines {
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     line.ProductID,
				WarehouseID:   doc.FromWarehouseID,
				Direction:     ledger.DirectionOut,
				Reason:        ledger.ReasonTransferSend,
				Quantity:      line.Quantity,
				ReferenceType: ledger.RefTransfer,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
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

	logger.Info(ctx, "transfer sent", "id", docID)
	return nil
}

// Receive completes the transfer: one inbound movement per sent line
// at the destination warehouse, valued at the exact unit cost the send
// movement recorded so the goods arrive at the value they left with.
func (s *Service) Receive(ctx context.Context, docID id.ID) error {
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

		if doc.Status != entity.StatusInTransit {
			return apperror.NewDocumentState("only in-transit transfers can be received").
				WithDetail("status", string(doc.Status))
		}

		movements, err := s.ledger.GetByReference(ctx, ledger.RefTransfer, doc.ID)
		if err != nil {
			return fmt.Errorf("get transfer movements: %w", err)
		}

		if err := doc.Transition(entity.StatusReceived); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, m := range movements {
			if m.Reason != ledger.ReasonTransferSend {
				continue
			}
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     m.ProductID,
				WarehouseID:   doc.ToWarehouseID,
				Direction:     ledger.DirectionIn,
				Reason:        ledger.ReasonTransferReceive,
				Quantity:      m.Quantity,
				UnitCost:      m.UnitCost,
				ReferenceType: ledger.RefTransfer,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
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

	logger.Info(ctx, "transfer received", "id", docID)
	return nil
}

// Cancel cancels the transfer. A draft cancels outright; an in-transit
// transfer returns the goods to the source warehouse with inbound
// movements at the cost captured on send. Received transfers cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
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

		if doc.Status != entity.StatusDraft && doc.Status != entity.StatusInTransit {
			return apperror.NewDocumentState("only draft or in-transit transfers can be cancelled").
				WithDetail("status", string(doc.Status))
		}

		wasInTransit := doc.Status == entity.StatusInTransit

		if err := doc.Transition(entity.StatusCancelled); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if !wasInTransit {
			return nil
		}

		movements, err := s.ledger.GetByReference(ctx, ledger.RefTransfer, doc.ID)
		if err != nil {
			return fmt.Errorf("get transfer movements: %w", err)
		}

		for _, m := range movements {
			if m.Reason != ledger.ReasonTransferSend {
				continue
			}
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     m.ProductID,
				WarehouseID:   doc.FromWarehouseID,
				Direction:     ledger.DirectionIn,
				Reason:        ledger.ReasonTransferReceive,
				Quantity:      m.Quantity,
				UnitCost:      m.UnitCost,
				ReferenceType: ledger.RefTransfer,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
				Notes:         fmt.Sprintf("cancellation of %s", doc.Number),
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

	logger.Info(ctx, "transfer cancelled", "id", docID)
	return nil
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	return s.repo.List(ctx, filter)
}
