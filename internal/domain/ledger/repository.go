package ledger

import (
	"context"

	"invenda/internal/core/id"
	"invenda/internal/domain/catalogs/product"
)

// Repository defines persistence operations for the movement ledger.
// All methods run against the transaction carried in context; the
// product lock is only meaningful inside one.
type Repository interface {
	// GetProductForUpdate loads the product row with an exclusive lock
	// (SELECT ... FOR UPDATE), serializing concurrent movements on the
	// same product for the rest of the transaction.
	GetProductForUpdate(ctx context.Context, productID id.ID) (*product.Product, error)

	// InsertMovement appends the immutable ledger row and fills in the
	// store-assigned EntryNo. A unique violation on the movement number
	// maps to apperror.CodeSequenceCollision.
	InsertMovement(ctx context.Context, m *Movement) error

	// UpdateProductStock writes the product's stock and cost aggregate
	// (current, available, average cost) after a recorded movement.
	UpdateProductStock(ctx context.Context, p *product.Product) error

	// ListMovements returns movements for the kardex, ordered by
	// movement date then entry number.
	ListMovements(ctx context.Context, filter KardexFilter) ([]*Movement, error)

	// ListByReference returns all movements recorded for one
	// originating document, in entry order. Used to build reversals.
	ListByReference(ctx context.Context, refType ReferenceType, refID id.ID) ([]*Movement, error)
}
