package adjustment

import (
	"context"

	"github.com/shopspring/decimal"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
)

// Repository stores transfers.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error

	// Get returns apperror NotFound when the transfer does not exist.
	Get(ctx context.Context, transferID id.ID) (*Transfer, error)

	// Delete returns apperror NotFound when nothing was deleted.
	Delete(ctx context.Context, transferID id.ID) error

	// List returns the transfers of a scope ordered by creation time.
	List(ctx context.Context, scope Scope) ([]Transfer, error)
}

// Position is the current adjusted balance of a code.
type Position struct {
	Quantity decimal.Decimal
	Unit     string
}

// Snapshot is a freshly computed view of a period's balances.
type Snapshot struct {
	LedgerBatchID  *id.ID
	LedgerDegraded bool
	Positions      map[itemcode.Code]Position
}

// Snapshotter computes balances on demand. Implemented by the consolidation
// engine; balances are never cached between calls.
type Snapshotter interface {
	Snapshot(ctx context.Context, periodID id.ID, ledgerBatchID *id.ID) (*Snapshot, error)
}
