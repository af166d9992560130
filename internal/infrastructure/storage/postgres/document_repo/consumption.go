package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invenda/internal/core/id"
	"invenda/internal/domain"
	"invenda/internal/domain/documents/consumption"
	"invenda/internal/infrastructure/storage/postgres"
)

const (
	consumptionsTable     = "doc_consumptions"
	consumptionLinesTable = "doc_consumption_lines"
)

var _ consumption.Repository = (*ConsumptionRepo)(nil)

// ConsumptionRepo implements consumption.Repository.
type ConsumptionRepo struct {
	*BaseDocumentRepo[*consumption.Consumption]
}

// NewConsumptionRepo creates a new consumption repository.
func NewConsumptionRepo() *ConsumptionRepo {
	return &ConsumptionRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			consumptionsTable,
			postgres.ExtractDBColumns[consumption.Consumption](),
			func() *consumption.Consumption { return &consumption.Consumption{} },
		),
	}
}

// GetLines retrieves lines for a consumption.
func (r *ConsumptionRepo) GetLines(ctx context.Context, docID id.ID) ([]consumption.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity").
		From(consumptionLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []consumption.Line
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a consumption (delete existing + insert new).
func (r *ConsumptionRepo) SaveLines(ctx context.Context, docID id.ID, lines []consumption.Line) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + consumptionLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(consumptionLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity")

	for _, line := range lines {
		q = q.Values(line.LineID, docID, line.LineNo, line.ProductID, line.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// List retrieves consumptions with filtering.
func (r *ConsumptionRepo) List(ctx context.Context, filter consumption.ListFilter) (domain.ListResult[*consumption.Consumption], error) {
	q, err := r.baseSelect(ctx)
	if err != nil {
		return domain.ListResult[*consumption.Consumption]{}, err
	}

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
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
			squirrel.ILike{"purpose": searchPattern},
		})
	}

	return r.runList(ctx, q, filter.ListFilter)
}
