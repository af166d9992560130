package ledger

import (
	"context"
	"fmt"
	"time"

	"invenda/internal/core/apperror"
	"invenda/internal/core/entity"
	"invenda/internal/core/id"
	"invenda/internal/core/sequence"
	"invenda/internal/core/tenant"
	"invenda/internal/core/tx"
	"invenda/internal/core/types"
	"invenda/pkg/logger"
)

// NumberPrefix is the movement number prefix. The format
// PREFIX-YYYY-NNNNN is a wire contract consumed by reporting and
// export collaborators; do not change it.
const NumberPrefix = "MOV"

// Service is the movement ledger. RecordMovement is the sole mutation
// entry point for product stock and cost.
type Service struct {
	repo      Repository
	allocator sequence.Allocator
	txManager tx.Manager // optional - obtained from context when nil
}

// NewService creates the ledger service.
func NewService(repo Repository, allocator sequence.Allocator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		txManager: txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// RecordMovement records one stock movement inside the caller's
// transaction: locks the product row, runs the stock guard, computes
// the new stock and (for inbound moves) the new weighted-average cost,
// allocates a number, inserts the immutable ledger row, and updates the
// product aggregate.
//
// The ledger is a transaction participant, never an owner: the call
// fails if ctx carries no active transaction, because the movement row
// and the product update must be atomic with the caller's other writes.
func (s *Service) RecordMovement(ctx context.Context, req *Request) (*Movement, error) {
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	if !txm.InTransaction(ctx) {
		return nil, apperror.NewInvalidMovement("movement recording requires an active transaction")
	}

	// 1. Lock the product row. Serializes concurrent movements on the
	// same product for the remainder of the transaction.
	p, err := s.repo.GetProductForUpdate(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if !p.IsStockTracked() {
		return nil, apperror.NewInvalidMovement("product is not stock-tracked").
			WithDetail("product", p.Name).
			WithDetail("type", string(p.Type))
	}

	previousStock := p.CurrentStock
	previousAvg := p.AverageCost

	// 2-4. Guard, new stock, cost basis.
	var newStock types.Qty
	unitCost := req.UnitCost

	switch req.Direction {
	case DirectionIn:
		newStock = previousStock.Add(req.Quantity)
		p.AverageCost = WeightedAverage(previousStock, previousAvg, req.Quantity, req.UnitCost)
	case DirectionOut:
		if err := CheckOutbound(p.Name, previousStock, req.Quantity, p.AllowNegativeStock); err != nil {
			return nil, err
		}
		newStock = previousStock.Sub(req.Quantity)
		// Outbound movements are costed at the running average and
		// never alter the cost basis.
		unitCost = previousAvg
	}

	// 5-6. Allocate a number and insert the immutable row. A unique
	// violation on the number is retried once with a fresh allocation;
	// a second collision escalates as an infrastructure fault.
	m, err := s.insertWithNumber(ctx, txm, req, p.TenantID, previousStock, newStock, unitCost)
	if err != nil {
		return nil, err
	}

	// 7. Update the product aggregate in place.
	p.CurrentStock = newStock
	p.RecomputeAvailable()
	if err := s.repo.UpdateProductStock(ctx, p); err != nil {
		return nil, fmt.Errorf("update product stock: %w", err)
	}

	logger.Info(ctx, "recorded stock movement",
		"number", m.Number,
		"product_id", m.ProductID,
		"direction", m.Direction,
		"reason", m.Reason,
		"quantity", m.Quantity,
		"new_stock", m.NewStock,
	)

	return m, nil
}

// insertWithNumber allocates a movement number and inserts the row,
// retrying once on a number collision. Each insert attempt runs under a
// savepoint when the manager supports one: a unique violation aborts
// the enclosing Postgres transaction otherwise, and the retry would hit
// 25P02 instead of inserting.
func (s *Service) insertWithNumber(ctx context.Context, txm tx.Manager, req *Request, tenantID id.ID, previousStock, newStock types.Qty, unitCost types.Money) (*Movement, error) {
	cfg := sequence.DefaultConfig(NumberPrefix)
	sp, _ := txm.(tx.SavepointManager)

	for attempt := 0; ; attempt++ {
		number, err := s.allocator.Next(ctx, cfg, nil, req.Date)
		if err != nil {
			return nil, fmt.Errorf("allocate movement number: %w", err)
		}

		m := s.buildMovement(ctx, req, tenantID, number, previousStock, newStock, unitCost)

		if sp != nil {
			err = sp.RunInSavepoint(ctx, func(ctx context.Context) error {
				return s.repo.InsertMovement(ctx, m)
			})
		} else {
			err = s.repo.InsertMovement(ctx, m)
		}
		if err == nil {
			return m, nil
		}
		if apperror.IsSequenceCollision(err) && attempt == 0 {
			logger.Warn(ctx, "movement number collision, reallocating",
				"number", number,
			)
			continue
		}
		return nil, err
	}
}

func (s *Service) buildMovement(ctx context.Context, req *Request, tenantID id.ID, number string, previousStock, newStock types.Qty, unitCost types.Money) *Movement {
	// Monetary rounding happens here only, at persist time, to the
	// tenant's currency exponent.
	totalCost := types.RoundMoney(req.Quantity.Mul(unitCost), tenant.CurrencyExponent(ctx))

	return &Movement{
		ID:            id.New(),
		TenantID:      tenantID,
		Number:        number,
		Direction:     req.Direction,
		Reason:        req.Reason,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		ProductID:     req.ProductID,
		WarehouseID:   req.WarehouseID,
		Quantity:      req.Quantity,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		PreviousStock: previousStock,
		NewStock:      newStock,
		UserID:        req.UserID,
		Date:          req.Date,
		Notes:         req.Notes,
		CreatedAt:     time.Now().UTC(),
	}
}

// GetKardex returns the ordered movement history for a product, the
// read-only projection used by reporting. Ordering is movement date
// then entry number; no side effects.
func (s *Service) GetKardex(ctx context.Context, filter KardexFilter) (*Kardex, error) {
	if id.IsNil(filter.ProductID) {
		return nil, apperror.NewValidation("product id is required").
			WithDetail("field", "productId")
	}

	movements, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return NewKardex(filter.ProductID, movements), nil
}

// GetByReference returns all movements recorded for one originating
// document, in entry order. Orchestrators use it to build reversals.
func (s *Service) GetByReference(ctx context.Context, refType ReferenceType, refID id.ID) ([]*Movement, error) {
	if id.IsNil(refID) {
		return nil, apperror.NewValidation("reference id is required").
			WithDetail("field", "referenceId")
	}
	return s.repo.ListByReference(ctx, refType, refID)
}

var _ entity.Validatable = (*Request)(nil)
