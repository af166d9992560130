package sale

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
	"invenda/internal/domain/catalogs/product"
	"invenda/internal/domain/ledger"
	"invenda/pkg/logger"
)

// NumberPrefix for sale document numbers.
const NumberPrefix = "SALE"

// Service provides business operations for sale documents.
type Service struct {
	repo      Repository
	products  product.Repository
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Sale]
}

// NewService creates a new sale service.
func NewService(repo Repository, products product.Repository, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Sale](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Sale] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new draft sale.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
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

	logger.Info(ctx, "sale created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
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

// Update updates a draft sale.
func (s *Service) Update(ctx context.Context, doc *Sale) error {
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

// Delete soft-deletes a draft sale.
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

// shortageLine describes one line that cannot be fulfilled.
type shortageLine struct {
	LineNo    int    `json:"lineNo"`
	Product   string `json:"product"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}

// checkStock verifies every stock-tracked line against current
// availability before any movement is recorded, so a multi-line
// shortage is reported in full instead of failing on the first line.
// Rows are not locked here; the ledger re-checks under FOR UPDATE.
func (s *Service) checkStock(ctx context.Context, lines []Line) error {
	shortages := make([]shortageLine, 0)

	for _, line := range lines {
		p, err := s.products.GetByID(ctx, *line.ProductID)
		if err != nil {
			return err
		}
		if !p.IsStockTracked() || p.AllowNegativeStock {
			continue
		}
		if p.CurrentStock.LessThan(line.Quantity) {
			shortages = append(shortages, shortageLine{
				LineNo:    line.LineNo,
				Product:   p.Name,
				Requested: line.Quantity.String(),
				Available: p.CurrentStock.String(),
			})
		}
	}

	if len(shortages) == 0 {
		return nil
	}

	return apperror.NewBusinessRule(apperror.CodeInsufficientStock, "insufficient stock for sale").
		WithDetail("lines", shortages)
}

// Confirm confirms the sale and records one outbound movement per
// stock-tracked line, costed at the product's running average.
// Description lines and already-fulfilled lines never touch stock.
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
			return apperror.NewDocumentState("only draft sales can be confirmed").
				WithDetail("status", string(doc.Status))
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		stockLines := doc.StockLines()
		if err := s.checkStock(ctx, stockLines); err != nil {
			return err
		}

		if err := doc.Transition(entity.StatusConfirmed); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, line := range stockLines {
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     *line.ProductID,
				WarehouseID:   doc.WarehouseID,
				Direction:     ledger.DirectionOut,
				Reason:        ledger.ReasonSale,
				Quantity:      line.Quantity,
				ReferenceType: ledger.RefSale,
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

	logger.Info(ctx, "sale confirmed", "id", docID)
	return nil
}

// Cancel cancels a confirmed sale. Every outbound movement the
// confirmation recorded is reversed with a new inbound movement at the
// originally recorded unit cost; nothing is edited or deleted.
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

		if doc.Status != entity.StatusConfirmed {
			return apperror.NewDocumentState("only confirmed sales can be cancelled").
				WithDetail("status", string(doc.Status))
		}

		movements, err := s.ledger.GetByReference(ctx, ledger.RefSale, doc.ID)
		if err != nil {
			return fmt.Errorf("get sale movements: %w", err)
		}

		if err := doc.Transition(entity.StatusCancelled); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		for _, m := range movements {
			if m.Reason != ledger.ReasonSale {
				continue
			}
			_, err := s.ledger.RecordMovement(ctx, &ledger.Request{
				ProductID:     m.ProductID,
				WarehouseID:   m.WarehouseID,
				Direction:     ledger.DirectionIn,
				Reason:        ledger.ReasonSaleReversal,
				Quantity:      m.Quantity,
				UnitCost:      m.UnitCost,
				ReferenceType: ledger.RefSale,
				ReferenceID:   doc.ID,
				UserID:        userID,
				Date:          doc.Date,
				Notes:         fmt.Sprintf("reversal of %s", m.Number),
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

	logger.Info(ctx, "sale cancelled", "id", docID)
	return nil
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}
