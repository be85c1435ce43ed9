package aggregation

import (
	"context"
	"fmt"
	"strings"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/records"
	"estoque/pkg/logger"
)

// Entries aggregates the incoming lines of one ledger batch.
type Entries struct {
	source   records.Source
	products product.Repository
	pageSize int
}

// NewEntries creates an entry aggregator. pageSize <= 0 uses domain.DefaultPageSize.
func NewEntries(source records.Source, products product.Repository, pageSize int) *Entries {
	return &Entries{source: source, products: products, pageSize: pageSize}
}

// Aggregate sums the lines of ledgerBatchID per code. Lines of any other
// batch are never read. Each line contributes its effective quantity (the
// manual override when present) times the unit conversion factor, and its
// document value as recorded.
func (e *Entries) Aggregate(ctx context.Context, ledgerBatchID id.ID) (*Aggregate, error) {
	docs, err := e.source.ListDocuments(ctx, ledgerBatchID)
	if err != nil {
		return nil, fmt.Errorf("list documents of batch %s: %w", ledgerBatchID, err)
	}
	owned := make(map[id.ID]struct{}, len(docs))
	for _, d := range docs {
		if d.BatchID == ledgerBatchID {
			owned[d.ID] = struct{}{}
		}
	}

	conversions, err := e.products.ListConversions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	table := product.NewConversionTable(conversions)

	acc := newAccumulator()
	ambiguous := make(map[itemcode.Code]struct{})

	fetch := func(ctx context.Context, page domain.PageRequest) ([]records.EntryLine, error) {
		return e.source.ListEntryLines(ctx, ledgerBatchID, page)
	}
	visit := func(line records.EntryLine) {
		if !acc.admit(ctx, line.ID, line.BatchID) {
			return
		}
		if line.BatchID != ledgerBatchID {
			acc.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeForeignBatchLine,
				"entry line %s belongs to another batch, excluded", line.ID).
				With("line_id", line.ID).
				With("line_batch_id", line.BatchID))
			return
		}
		if _, ok := owned[line.DocumentID]; !ok {
			acc.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeOrphanLine,
				"entry line %s has no owning document in the batch, excluded", line.ID).
				With("line_id", line.ID).
				With("document_id", line.DocumentID))
			return
		}
		code, ok := acc.code(ctx, line.ID, line.Code)
		if !ok {
			return
		}

		factor, match := table.Lookup(code, line.Unit)
		if match == product.MatchAmbiguous {
			if _, warned := ambiguous[code]; !warned {
				ambiguous[code] = struct{}{}
				acc.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeAmbiguousConversion,
					"no conversion of code %s matches unit %q, quantity taken as is", code, line.Unit).
					With("code", code).
					With("unit", line.Unit))
			}
		}

		qty := line.EffectiveQuantity().Mul(factor)
		t := acc.add(code, qty, line.ValueTotal, strings.TrimSpace(line.Description), product.NormalizeUnit(line.Unit))
		if line.AdjustedQuantity.Valid {
			t.Overridden++
		}
		if match.Converted() {
			t.Converted++
		}
	}

	err = domain.FetchAll(ctx, e.pageSize, fetch, records.EntryLine.Cursor, visit)
	if err != nil {
		return nil, fmt.Errorf("read entry lines of batch %s: %w", ledgerBatchID, err)
	}

	agg := acc.result()
	logger.Debug(ctx, "entries aggregated",
		"batch_id", ledgerBatchID,
		"codes", len(agg.Items),
		"lines_read", agg.LinesRead,
		"lines_used", agg.LinesUsed,
		"issues", len(agg.Issues),
	)
	return agg, nil
}
