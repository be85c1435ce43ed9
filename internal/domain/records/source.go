package records

import (
	"context"

	"estoque/internal/core/id"
	"estoque/internal/domain"
)

// Source reads line records. List* methods return rows ordered by
// (line id, seq) with line ids compared bytewise, strictly after page.After,
// at most page.Limit rows.
type Source interface {
	ListStockLines(ctx context.Context, batchID id.ID, page domain.PageRequest) ([]InitialStockLine, error)

	// ListDocuments returns every document of a ledger batch.
	ListDocuments(ctx context.Context, batchID id.ID) ([]Document, error)

	// ListEntryLines returns the entry lines of a ledger batch with their
	// override (if any) merged into AdjustedQuantity.
	ListEntryLines(ctx context.Context, batchID id.ID, page domain.PageRequest) ([]EntryLine, error)

	// ListExitLines returns lines of any of the given invoice batches.
	ListExitLines(ctx context.Context, batchIDs []id.ID, page domain.PageRequest) ([]ExitLine, error)
}

// OverrideStore persists manual entry quantity corrections.
type OverrideStore interface {
	// GetEntryLine returns apperror NotFound when the batch has no such line.
	GetEntryLine(ctx context.Context, batchID id.ID, lineID string) (*EntryLine, error)
	SetEntryOverride(ctx context.Context, o EntryOverride) error
	ClearEntryOverride(ctx context.Context, batchID id.ID, lineID string) error
}

// Importer writes extracted records. Used by the import CLI.
type Importer interface {
	InsertStockLines(ctx context.Context, lines []InitialStockLine) (int64, error)
	InsertDocuments(ctx context.Context, docs []Document) (int64, error)
	InsertEntryLines(ctx context.Context, lines []EntryLine) (int64, error)
	InsertExitLines(ctx context.Context, lines []ExitLine) (int64, error)
}
