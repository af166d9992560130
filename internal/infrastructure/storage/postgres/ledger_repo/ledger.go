// Package ledger_repo provides the PostgreSQL implementation of the
// movement ledger repository.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/core/tenant"
	"invenda/internal/domain/catalogs/product"
	"invenda/internal/domain/ledger"
	"invenda/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "ledger_movements"
	productTable   = "cat_product"
)

// PostgreSQL error codes the ledger cares about.
const (
	pgUniqueViolation = "23505"
	pgLockNotAvail    = "55P03"
	pgQueryCanceled   = "57014"
)

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
// Movement rows are append-only: this repo has no update or delete.
type LedgerRepo struct {
	builder     squirrel.StatementBuilderType
	productCols []string
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{
		builder:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		productCols: postgres.ExtractDBColumns[product.Product](),
	}
}

func (r *LedgerRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *LedgerRepo) tenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", apperror.NewValidation("tenant is required")
	}
	return tenantID, nil
}

// GetProductForUpdate loads the product row with an exclusive lock,
// serializing concurrent movements on the same product for the rest of
// the transaction.
func (r *LedgerRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.
		Select(r.productCols...).
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p := &product.Product{}
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		if lockErr := asLockError(err); lockErr != nil {
			return nil, lockErr
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	return p, nil
}

// InsertMovement appends the immutable ledger row and fills in the
// store-assigned entry number.
func (r *LedgerRepo) InsertMovement(ctx context.Context, m *ledger.Movement) error {
	q := r.builder.
		Insert(movementsTable).
		Columns(
			"id", "tenant_id", "number", "direction", "reason",
			"reference_type", "reference_id",
			"product_id", "warehouse_id",
			"quantity", "unit_cost", "total_cost",
			"previous_stock", "new_stock",
			"user_id", "date", "notes", "created_at",
		).
		Values(
			m.ID, m.TenantID, m.Number, m.Direction, m.Reason,
			m.ReferenceType, m.ReferenceID,
			m.ProductID, m.WarehouseID,
			m.Quantity, m.UnitCost, m.TotalCost,
			m.PreviousStock, m.NewStock,
			m.UserID, m.Date, m.Notes, m.CreatedAt,
		).
		Suffix("RETURNING entry_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&m.EntryNo); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Another transaction took this number between allocation
			// and insert; the service retries with a fresh one.
			return apperror.NewSequenceCollision(m.Number).WithCause(err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// UpdateProductStock writes the product's stock and cost aggregate
// after a recorded movement. The row is already locked by
// GetProductForUpdate, so no optimistic version check is needed here.
func (r *LedgerRepo) UpdateProductStock(ctx context.Context, p *product.Product) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.
		Update(productTable).
		Set("current_stock", p.CurrentStock).
		Set("reserved_stock", p.ReservedStock).
		Set("available_stock", p.AvailableStock).
		Set("average_cost", p.AverageCost).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// movementCols are the columns of every movement SELECT.
var movementCols = []string{
	"id", "tenant_id", "entry_no", "number", "direction", "reason",
	"reference_type", "reference_id",
	"product_id", "warehouse_id",
	"quantity", "unit_cost", "total_cost",
	"previous_stock", "new_stock",
	"user_id", "date", "notes", "created_at",
}

// ListMovements returns movements for the kardex, ordered by movement
// date then entry number.
func (r *LedgerRepo) ListMovements(ctx context.Context, filter ledger.KardexFilter) ([]*ledger.Movement, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.
		Select(movementCols...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": filter.ProductID})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date ASC", "entry_no ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []*ledger.Movement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// ListByReference returns all movements recorded for one originating
// document, in entry order.
func (r *LedgerRepo) ListByReference(ctx context.Context, refType ledger.ReferenceType, refID id.ID) ([]*ledger.Movement, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.
		Select(movementCols...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"reference_type": refType}).
		Where(squirrel.Eq{"reference_id": refID}).
		OrderBy("entry_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []*ledger.Movement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select by reference: %w", err)
	}

	return movements, nil
}

// asLockError maps lock wait failures to the app error callers expect.
func asLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgLockNotAvail || pgErr.Code == pgQueryCanceled {
			return apperror.NewLockTimeout(err)
		}
	}
	return nil
}
