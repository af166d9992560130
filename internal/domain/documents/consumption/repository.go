package consumption

import (
	"context"
	"time"

	"invenda/internal/core/id"
	"invenda/internal/domain"
)

// Repository defines operations for consumption documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Consumption) error
	GetByID(ctx context.Context, docID id.ID) (*Consumption, error)
	GetByNumber(ctx context.Context, number string) (*Consumption, error)
	Update(ctx context.Context, doc *Consumption) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Consumption], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*Consumption, error)
}

// ListFilter for filtering consumptions.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *string
	DateFrom    *time.Time
	DateTo      *time.Time
}
