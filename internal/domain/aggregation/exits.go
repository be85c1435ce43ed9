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
	"estoque/pkg/logger"
)

// Exits aggregates outgoing invoice lines across a set of batches.
type Exits struct {
	source   records.Source
	pageSize int
}

// NewExits creates an exit aggregator. pageSize <= 0 uses domain.DefaultPageSize.
func NewExits(source records.Source, pageSize int) *Exits {
	return &Exits{source: source, pageSize: pageSize}
}

// Aggregate sums the absolute quantity and the value of every line of the
// given batches per code, keeping the first non-empty description and unit.
// All pages are read before returning.
func (x *Exits) Aggregate(ctx context.Context, batchIDs []id.ID) (*Aggregate, error) {
	acc := newAccumulator()
	if len(batchIDs) == 0 {
		return acc.result(), nil
	}

	wanted := make(map[id.ID]struct{}, len(batchIDs))
	for _, b := range batchIDs {
		wanted[b] = struct{}{}
	}

	fetch := func(ctx context.Context, page domain.PageRequest) ([]records.ExitLine, error) {
		return x.source.ListExitLines(ctx, batchIDs, page)
	}
	visit := func(line records.ExitLine) {
		if !acc.admit(ctx, line.ID, line.BatchID) {
			return
		}
		if _, ok := wanted[line.BatchID]; !ok {
			acc.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeForeignBatchLine,
				"exit line %s belongs to a batch outside the request, excluded", line.ID).
				With("line_id", line.ID).
				With("line_batch_id", line.BatchID))
			return
		}
		code, ok := acc.code(ctx, line.ID, line.Code)
		if !ok {
			return
		}
		acc.add(code, line.Quantity.Abs(), line.ValueTotal,
			strings.TrimSpace(line.Description), product.NormalizeUnit(line.Unit))
	}

	err := domain.FetchAll(ctx, x.pageSize, fetch, records.ExitLine.Cursor, visit)
	if err != nil {
		return nil, fmt.Errorf("read exit lines: %w", err)
	}

	agg := acc.result()
	logger.Debug(ctx, "exits aggregated",
		"batches", len(batchIDs),
		"codes", len(agg.Items),
		"lines_read", agg.LinesRead,
		"lines_used", agg.LinesUsed,
	)
	return agg, nil
}
