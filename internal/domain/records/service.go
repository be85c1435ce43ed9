package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/apperror"
	appctx "estoque/internal/core/context"
	"estoque/internal/core/id"
	"estoque/pkg/logger"
)

// OverrideService sets and clears manual quantity corrections on entry lines.
// The original document data is never touched.
type OverrideService struct {
	store OverrideStore
}

// NewOverrideService creates an override service.
func NewOverrideService(store OverrideStore) *OverrideService {
	return &OverrideService{store: store}
}

// Set records qty as the effective quantity of lineID in batchID. Lines of
// other batches sharing the id are not affected.
func (s *OverrideService) Set(ctx context.Context, batchID id.ID, lineID string, qty decimal.Decimal) (*EntryLine, error) {
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return nil, apperror.NewValidation("line id is required")
	}
	if qty.IsNegative() {
		return nil, apperror.NewValidation("adjusted quantity must not be negative").
			WithDetail("adjustedQuantity", qty.String())
	}

	line, err := s.store.GetEntryLine(ctx, batchID, lineID)
	if err != nil {
		return nil, err
	}

	o := EntryOverride{
		BatchID:   batchID,
		LineID:    lineID,
		Quantity:  qty,
		UpdatedBy: appctx.GetOperatorID(ctx),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.SetEntryOverride(ctx, o); err != nil {
		return nil, fmt.Errorf("set entry override: %w", err)
	}

	logger.Info(ctx, "entry quantity overridden",
		"batch_id", batchID,
		"line_id", lineID,
		"code", line.Code,
		"document_quantity", line.Quantity.String(),
		"adjusted_quantity", qty.String(),
	)

	line.AdjustedQuantity = decimal.NullDecimal{Decimal: qty, Valid: true}
	return line, nil
}

// Clear removes the override of lineID in batchID, restoring the document quantity.
func (s *OverrideService) Clear(ctx context.Context, batchID id.ID, lineID string) error {
	if _, err := s.store.GetEntryLine(ctx, batchID, lineID); err != nil {
		return err
	}
	if err := s.store.ClearEntryOverride(ctx, batchID, lineID); err != nil {
		return fmt.Errorf("clear entry override: %w", err)
	}
	logger.Info(ctx, "entry override cleared", "batch_id", batchID, "line_id", lineID)
	return nil
}
