package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invenda/internal/core/id"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/workshop"
	"invenda/internal/infrastructure/storage/postgres"
)

const (
	workshopOrdersTable = "doc_workshop_orders"
	workshopPartsTable  = "doc_workshop_parts"
	workshopLaborTable  = "doc_workshop_labor"
)

var _ workshop.Repository = (*WorkshopRepo)(nil)

// WorkshopRepo implements workshop.Repository. Workshop orders carry two
// table parts: consumed parts and billed labor.
type WorkshopRepo struct {
	*BaseDocumentRepo[*workshop.Order]
}

// NewWorkshopRepo creates a new workshop order repository.
func NewWorkshopRepo() *WorkshopRepo {
	return &WorkshopRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			workshopOrdersTable,
			postgres.ExtractDBColumns[workshop.Order](),
			func() *workshop.Order { return &workshop.Order{} },
		),
	}
}

// GetParts retrieves the consumed parts of an order.
func (r *WorkshopRepo) GetParts(ctx context.Context, docID id.ID) ([]workshop.Part, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_cost", "sale_price").
		From(workshopPartsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var parts []workshop.Part
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &parts, sql, args...); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}

	return parts, nil
}

// SaveParts saves the consumed parts (delete existing + insert new).
func (r *WorkshopRepo) SaveParts(ctx context.Context, docID id.ID, parts []workshop.Part) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + workshopPartsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing parts: %w", err)
	}

	if len(parts) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(workshopPartsTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_cost", "sale_price")

	for _, part := range parts {
		q = q.Values(part.LineID, docID, part.LineNo, part.ProductID, part.Quantity, part.UnitCost, part.SalePrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert parts: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert parts: %w", err)
	}

	return nil
}

// GetLabor retrieves the labor lines of an order.
func (r *WorkshopRepo) GetLabor(ctx context.Context, docID id.ID) ([]workshop.Labor, error) {
	q := r.Builder().
		Select("line_id", "line_no", "description", "hours", "rate", "amount").
		From(workshopLaborTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var labor []workshop.Labor
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &labor, sql, args...); err != nil {
		return nil, fmt.Errorf("get labor: %w", err)
	}

	return labor, nil
}

// SaveLabor saves the labor lines (delete existing + insert new).
func (r *WorkshopRepo) SaveLabor(ctx context.Context, docID id.ID, labor []workshop.Labor) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + workshopLaborTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing labor: %w", err)
	}

	if len(labor) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(workshopLaborTable).
		Columns("line_id", "document_id", "line_no", "description", "hours", "rate", "amount")

	for _, line := range labor {
		q = q.Values(line.LineID, docID, line.LineNo, line.Description, line.Hours, line.Rate, line.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert labor: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert labor: %w", err)
	}

	return nil
}

// List retrieves workshop orders with filtering.
func (r *WorkshopRepo) List(ctx context.Context, filter workshop.ListFilter) (domain.ListResult[*workshop.Order], error) {
	q, err := r.baseSelect(ctx)
	if err != nil {
		return domain.ListResult[*workshop.Order]{}, err
	}

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"subject": searchPattern},
		})
	}

	return r.runList(ctx, q, filter.ListFilter)
}
