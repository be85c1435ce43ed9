// Package tx defines the transaction boundary used by domain services.
// The postgres implementation lives in infrastructure/storage/postgres, the
// in-memory one in infrastructure/storage/memory.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
// Nested calls reuse the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions. Consolidation
// uses it so every source is read from one snapshot.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
