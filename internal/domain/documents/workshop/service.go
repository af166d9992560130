package workshop

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
	"invenda/internal/core/types"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/sale"
	"invenda/internal/domain/ledger"
	"invenda/pkg/logger"
)

// NumberPrefix for workshop order numbers.
const NumberPrefix = "WS"

// Service provides business operations for workshop orders.
type Service struct {
	repo      Repository
	sales     *sale.Service
	ledger    *ledger.Service
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
	hooks     *domain.HookRegistry[*Order]
}

// NewService creates a new workshop service.
func NewService(repo Repository, sales *sale.Service, ledgerSvc *ledger.Service, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		sales:     sales,
		ledger:    ledgerSvc,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Order](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create opens a new workshop order.
func (s *Service) Create(ctx context.Context, doc *Order) error {
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
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveLabor(ctx, doc.ID, doc.Labor); err != nil {
			return fmt.Errorf("save labor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.hooks.RunAfterCreate(ctx, doc)

	logger.Info(ctx, "workshop order opened", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an order with parts and labor.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if doc.Parts, err = s.repo.GetParts(ctx, docID); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	if doc.Labor, err = s.repo.GetLabor(ctx, docID); err != nil {
		return nil, fmt.Errorf("get labor: %w", err)
	}

	return doc, nil
}

// Update updates an open order's header and labor lines. Parts change
// only through AddPart and RemovePart, which keep stock in step.
func (s *Service) Update(ctx context.Context, doc *Order) error {
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
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.repo.SaveLabor(ctx, doc.ID, doc.Labor); err != nil {
			return fmt.Errorf("save labor: %w", err)
		}
		return nil
	})
}

// AddPart consumes a part from stock onto the order. The outbound
// movement is recorded immediately at the running average, and the
// part line captures that cost for later billing and for reversal.
func (s *Service) AddPart(ctx context.Context, docID, productID id.ID, quantity types.Qty, salePrice types.Money) (*Part, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	userID, _ := id.Parse(appctx.GetUserID(ctx))

	var part *Part
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if err := doc.CanModify(); err != nil {
			return err
		}

		parts, err := s.repo.GetParts(ctx, docID)
		if err != nil {
			return fmt.Errorf("get parts: %w", err)
		}

		m, err := s.ledger.RecordMovement(ctx, &ledger.Request{
			ProductID:     productID,
			WarehouseID:   doc.WarehouseID,
			Direction:     ledger.DirectionOut,
			Reason:        ledger.ReasonWorkshopPart,
			Quantity:      quantity,
			ReferenceType: ledger.RefWorkshop,
			ReferenceID:   doc.ID,
			UserID:        userID,
			Date:          doc.Date,
			Notes:         doc.Number,
		})
		if err != nil {
			return err
		}

		parts = append(parts, Part{
			LineID:    id.New(),
			LineNo:    len(parts) + 1,
			ProductID: productID,
			Quantity:  quantity,
			UnitCost:  m.UnitCost,
			SalePrice: salePrice,
		})
		if err := s.repo.SaveParts(ctx, docID, parts); err != nil {
			return fmt.Errorf("save parts: %w", err)
		}

		part = &parts[len(parts)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "part added to workshop order", "order", docID, "product", productID)
	return part, nil
}

// RemovePart puts a consumed part back on the shelf: an inbound
// correction at the exact cost the consumption recorded, and the part
// line disappears from the order.
func (s *Service) RemovePart(ctx context.Context, docID, lineID id.ID) error {
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

		if err := doc.CanModify(); err != nil {
			return err
		}

		parts, err := s.repo.GetParts(ctx, docID)
		if err != nil {
			return fmt.Errorf("get parts: %w", err)
		}

		idx := -1
		for i := range parts {
			if parts[i].LineID == lineID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperror.NewNotFound("part", lineID)
		}
		part := parts[idx]

		_, err = s.ledger.RecordMovement(ctx, &ledger.Request{
			ProductID:     part.ProductID,
			WarehouseID:   doc.WarehouseID,
			Direction:     ledger.DirectionIn,
			Reason:        ledger.ReasonAdjustmentIn,
			Quantity:      part.Quantity,
			UnitCost:      part.UnitCost,
			ReferenceType: ledger.RefWorkshop,
			ReferenceID:   doc.ID,
			UserID:        userID,
			Date:          doc.Date,
			Notes:         fmt.Sprintf("part removed from %s", doc.Number),
		})
		if err != nil {
			return err
		}

		parts = append(parts[:idx], parts[idx+1:]...)
		for i := range parts {
			parts[i].LineNo = i + 1
		}
		return s.repo.SaveParts(ctx, docID, parts)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "part removed from workshop order", "order", docID, "line", lineID)
	return nil
}

// GenerateSale closes the order and creates a draft sale billing the
// consumed parts and the labor. Part lines go in already fulfilled:
// their stock left when they were added to the order, so confirming
// the sale must not consume them again.
func (s *Service) GenerateSale(ctx context.Context, docID id.ID) (*sale.Sale, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var billing *sale.Sale
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != entity.StatusDraft {
			return apperror.NewDocumentState("only open workshop orders can be billed").
				WithDetail("status", string(doc.Status))
		}

		if doc.Parts, err = s.repo.GetParts(ctx, docID); err != nil {
			return fmt.Errorf("get parts: %w", err)
		}
		if doc.Labor, err = s.repo.GetLabor(ctx, docID); err != nil {
			return fmt.Errorf("get labor: %w", err)
		}

		if len(doc.Parts) == 0 && len(doc.Labor) == 0 {
			return apperror.NewDocumentState("nothing to bill: order has no parts or labor")
		}

		billing = sale.New(doc.TenantID, doc.CustomerID, doc.WarehouseID)
		for _, part := range doc.Parts {
			billing.AddFulfilledLine(part.ProductID, part.Quantity, part.SalePrice)
		}
		for _, labor := range doc.Labor {
			billing.AddDescriptionLine(labor.Description, labor.Hours, labor.Rate)
		}
		billing.Comment = fmt.Sprintf("workshop order %s", doc.Number)

		if err := s.sales.Create(ctx, billing); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		saleID := billing.ID
		doc.SaleID = &saleID
		if err := doc.Transition(entity.StatusConfirmed); err != nil {
			return err
		}
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "workshop order billed", "order", docID, "sale", billing.ID)
	return billing, nil
}

// List retrieves workshop orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
