package aggregation

import (
	"context"
	"fmt"
	"strings"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/domain"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/records"
)

// InitialStock aggregates the opening snapshot of one stock batch.
type InitialStock struct {
	source   records.Source
	pageSize int
}

// NewInitialStock creates a snapshot aggregator.
func NewInitialStock(source records.Source, pageSize int) *InitialStock {
	return &InitialStock{source: source, pageSize: pageSize}
}

// Aggregate sums quantity and quantity*unit_cost per code.
func (s *InitialStock) Aggregate(ctx context.Context, stockBatchID id.ID) (*Aggregate, error) {
	acc := newAccumulator()

	fetch := func(ctx context.Context, page domain.PageRequest) ([]records.InitialStockLine, error) {
		return s.source.ListStockLines(ctx, stockBatchID, page)
	}
	visit := func(line records.InitialStockLine) {
		if !acc.admit(ctx, line.ID, line.BatchID) {
			return
		}
		if line.BatchID != stockBatchID {
			acc.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeForeignBatchLine,
				"stock line %s belongs to another batch, excluded", line.ID).
				With("line_id", line.ID).
				With("line_batch_id", line.BatchID))
			return
		}
		code, ok := acc.code(ctx, line.ID, line.Code)
		if !ok {
			return
		}
		acc.add(code, line.Quantity, line.Value(),
			strings.TrimSpace(line.Description), product.NormalizeUnit(line.Unit))
	}

	err := domain.FetchAll(ctx, s.pageSize, fetch, records.InitialStockLine.Cursor, visit)
	if err != nil {
		return nil, fmt.Errorf("read stock lines of batch %s: %w", stockBatchID, err)
	}
	return acc.result(), nil
}
