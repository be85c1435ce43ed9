package period

import (
	"context"

	"estoque/internal/core/id"
)

// Repository stores periods and batches.
// Get* methods return apperror NotFound when the row is missing.
type Repository interface {
	CreatePeriod(ctx context.Context, p *Period) error
	GetPeriod(ctx context.Context, periodID id.ID) (*Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)

	// GetActivePeriod returns nil, nil when no period is active.
	GetActivePeriod(ctx context.Context) (*Period, error)

	// SetActivePeriod flips is_active for every period in a single statement.
	SetActivePeriod(ctx context.Context, periodID id.ID) error

	CreateBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, batchID id.ID) (*Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)

	// SetBatchBase sets is_base on one batch.
	SetBatchBase(ctx context.Context, batchID id.ID, isBase bool) error

	// ClearBase unsets is_base on every batch of (periodID, t).
	ClearBase(ctx context.Context, periodID id.ID, t SourceType) error

	// LinkBatch moves a batch to another period (or unlinks it with nil),
	// resetting is_base.
	LinkBatch(ctx context.Context, batchID id.ID, periodID *id.ID) error
}
