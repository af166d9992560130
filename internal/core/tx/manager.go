// Package tx provides transaction management abstractions.
// This package defines interfaces that decouple domain logic from specific
// database implementations, following the Dependency Inversion Principle.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
//
// Domain services depend on this interface, not concrete implementations.
// The actual implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether ctx carries an active transaction.
	// The movement ledger uses this to refuse running outside of one:
	// it participates in the caller's transaction and never owns it.
	InTransaction(ctx context.Context) bool
}

// SavepointManager is implemented by managers that can scope part of an
// open transaction to a savepoint. A failing statement then rolls back
// to the savepoint instead of aborting the whole transaction; the
// movement ledger relies on this to retry a number collision in place.
type SavepointManager interface {
	// RunInSavepoint executes fn under a savepoint on the transaction in
	// ctx. If fn fails, the transaction is rolled back to the savepoint
	// and stays usable. Without an active transaction fn runs directly.
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that don't modify data (better performance, no locks).
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	// Attempts to modify data will fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
