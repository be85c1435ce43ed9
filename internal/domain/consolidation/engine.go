package consolidation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/core/tx"
	"estoque/internal/core/types"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/aggregation"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/domain/period"
	"estoque/pkg/logger"
)

var tracer = otel.Tracer("estoque/consolidation")

// maxListedCodes caps code lists attached to summary issues.
const maxListedCodes = 20

// Engine computes consolidated positions. It holds no state between calls.
type Engine struct {
	resolver  *period.Resolver
	stock     *aggregation.InitialStock
	entries   *aggregation.Entries
	exits     *aggregation.Exits
	transfers adjustment.Repository
	products  product.Repository
	txManager tx.ReadOnlyManager
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Resolver  *period.Resolver
	Stock     *aggregation.InitialStock
	Entries   *aggregation.Entries
	Exits     *aggregation.Exits
	Transfers adjustment.Repository
	Products  product.Repository
	// TxManager is optional; when set every source is read in one read-only transaction.
	TxManager tx.ReadOnlyManager
}

// NewEngine creates a consolidation engine.
func NewEngine(d Deps) *Engine {
	return &Engine{
		resolver:  d.Resolver,
		stock:     d.Stock,
		entries:   d.Entries,
		exits:     d.Exits,
		transfers: d.Transfers,
		products:  d.Products,
		txManager: d.TxManager,
	}
}

var _ adjustment.Snapshotter = (*Engine)(nil)

// Consolidate computes the adjusted position of every code of periodID from
// the current store contents.
func (e *Engine) Consolidate(ctx context.Context, periodID id.ID, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "consolidate",
		trace.WithAttributes(attribute.String("period.id", periodID.String())))
	defer span.End()

	var result *Result
	run := func(ctx context.Context) error {
		var err error
		result, err = e.consolidate(ctx, periodID, opts)
		return err
	}

	var err error
	if e.txManager != nil {
		err = e.txManager.ReadOnly(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rows", len(result.Rows)),
		attribute.Int("issues", len(result.Issues)),
	)
	return result, nil
}

type inputs struct {
	stock     *aggregation.Aggregate
	entries   *aggregation.Aggregate
	exits     *aggregation.Aggregate
	transfers []adjustment.Transfer
	ledger    map[itemcode.Code]Descriptor
	catalog   map[itemcode.Code]Descriptor
}

func (e *Engine) consolidate(ctx context.Context, periodID id.ID, opts Options) (*Result, error) {
	res, err := e.resolver.Resolve(ctx, periodID, period.Hints{
		StockBatchID:  opts.StockBatchID,
		LedgerBatchID: opts.LedgerBatchID,
	})
	if err != nil {
		return nil, err
	}

	report := &diag.Report{}
	report.Merge(res.Issues)

	in, err := e.load(ctx, res)
	if err != nil {
		return nil, err
	}
	report.Merge(in.stock.Issues)
	report.Merge(in.entries.Issues)
	report.Merge(in.exits.Issues)

	received := make(map[itemcode.Code]decimal.Decimal)
	given := make(map[itemcode.Code]decimal.Decimal)
	for _, t := range in.transfers {
		received[t.NegativeCode] = received[t.NegativeCode].Add(t.Quantity)
		given[t.PositiveCode] = given[t.PositiveCode].Add(t.Quantity)
	}

	codes := unionCodes(in, received, given)
	chain := []Describer{
		fromAggregate(OriginStock, in.stock),
		FromMap(OriginLedger, in.ledger),
		FromMap(OriginCatalog, in.catalog),
		fromAggregate(OriginExits, in.exits),
	}

	result := &Result{
		PeriodID:   periodID,
		Resolution: res,
		Rows:       make([]Row, 0, len(codes)),
		Transfers:  len(in.transfers),
		Degraded:   res.Degraded,
		ComputedAt: time.Now().UTC(),
	}
	result.Totals = zeroTotals()

	var noCost []itemcode.Code
	for _, code := range codes {
		row := computeRow(code, in, received[code], given[code])
		d := Describe(code, chain)
		row.Description, row.DescriptionOrigin = d.Description, d.DescriptionOrigin
		row.Unit, row.UnitOrigin = d.Unit, d.UnitOrigin

		if !row.AverageCost.Valid {
			noCost = append(noCost, code)
		}
		result.Rows = append(result.Rows, row)
		result.Totals.add(row)
	}

	if len(noCost) > 0 {
		listed := noCost
		if len(listed) > maxListedCodes {
			listed = listed[:maxListedCodes]
		}
		report.Add(ctx, diag.New(diag.KindArithmeticDegradation, diag.CodeUndefinedAverageCost,
			"%d codes have no initial stock or entries, average cost undefined and value taken from raw flows", len(noCost)).
			With("count", len(noCost)).
			With("codes", listed))
	}

	result.Issues = report.Issues

	logger.Info(ctx, "period consolidated",
		"period_id", periodID,
		"rows", len(result.Rows),
		"transfers", result.Transfers,
		"issues", len(result.Issues),
		"degraded", result.Degraded,
	)
	return result, nil
}

func (e *Engine) load(ctx context.Context, res *period.Resolution) (*inputs, error) {
	in := &inputs{
		stock:   emptyAggregate(),
		entries: emptyAggregate(),
		exits:   emptyAggregate(),
		ledger:  map[itemcode.Code]Descriptor{},
		catalog: map[itemcode.Code]Descriptor{},
	}

	var err error
	if res.StockBatchID != nil {
		if in.stock, err = e.stock.Aggregate(ctx, *res.StockBatchID); err != nil {
			return nil, err
		}
	}

	if res.LedgerBatchID != nil {
		if in.entries, err = e.entries.Aggregate(ctx, *res.LedgerBatchID); err != nil {
			return nil, err
		}
		products, err := e.products.ListLedgerProducts(ctx, *res.LedgerBatchID)
		if err != nil {
			return nil, fmt.Errorf("list ledger products: %w", err)
		}
		for _, p := range products {
			in.ledger[p.Code] = Descriptor{Description: p.Description, Unit: product.NormalizeUnit(p.Unit)}
		}
	}

	if in.exits, err = e.exits.Aggregate(ctx, res.InvoiceBatchIDs); err != nil {
		return nil, err
	}

	if !res.IsDegraded(period.DimensionLedger) {
		scope := adjustment.Scope{PeriodID: res.PeriodID, LedgerBatchID: res.LedgerBatchID}
		if in.transfers, err = e.transfers.List(ctx, scope); err != nil {
			return nil, fmt.Errorf("list transfers: %w", err)
		}
	}

	catalog, err := e.products.ListCatalogProducts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	for _, p := range catalog {
		in.catalog[p.Code] = Descriptor{Description: p.Description, Unit: product.NormalizeUnit(p.Unit)}
	}

	return in, nil
}

func emptyAggregate() *aggregation.Aggregate {
	return &aggregation.Aggregate{Items: map[itemcode.Code]*aggregation.Total{}}
}

func fromAggregate(origin string, agg *aggregation.Aggregate) Describer {
	return Describer{
		Origin: origin,
		Find: func(code itemcode.Code) Descriptor {
			t, ok := agg.Items[code]
			if !ok {
				return Descriptor{}
			}
			return Descriptor{Description: t.Description, Unit: t.Unit}
		},
	}
}

func unionCodes(in *inputs, received, given map[itemcode.Code]decimal.Decimal) []itemcode.Code {
	set := make(map[itemcode.Code]struct{})
	for _, agg := range []*aggregation.Aggregate{in.stock, in.entries, in.exits} {
		for c := range agg.Items {
			set[c] = struct{}{}
		}
	}
	for c := range received {
		set[c] = struct{}{}
	}
	for c := range given {
		set[c] = struct{}{}
	}

	out := make([]itemcode.Code, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// computeRow applies the reconciliation formulas to one code.
func computeRow(code itemcode.Code, in *inputs, received, given decimal.Decimal) Row {
	initial := in.stock.Get(code)
	entries := in.entries.Get(code)
	exits := in.exits.Get(code)

	row := Row{
		Code:         code,
		InitialQty:   initial.Quantity,
		InitialValue: initial.Value,
		EntriesQty:   entries.Quantity,
		EntriesValue: entries.Value,
		ExitsQty:     exits.Quantity,
		ExitsValue:   exits.Value,
		Received:     received,
		Given:        given,
	}

	_, inStock := in.stock.Items[code]
	_, inEntries := in.entries.Items[code]
	_, inExits := in.exits.Items[code]
	row.ExitOnly = inExits && !inStock && !inEntries

	row.TheoreticalQty = row.InitialQty.Add(row.EntriesQty).Sub(row.ExitsQty)
	row.AverageCost = types.SafeDiv(
		row.InitialValue.Add(row.EntriesValue),
		row.InitialQty.Add(row.EntriesQty),
	)
	row.FinalQty = row.TheoreticalQty.Add(row.Received).Sub(row.Given)

	if row.AverageCost.Valid {
		row.FinalValue = row.AverageCost.Decimal.Mul(row.FinalQty)
	} else {
		row.FinalValue = row.InitialValue.Add(row.EntriesValue).Sub(row.ExitsValue)
	}
	return row
}

func zeroTotals() Totals {
	return Totals{
		InitialValue: decimal.Zero,
		EntriesValue: decimal.Zero,
		ExitsValue:   decimal.Zero,
		Received:     decimal.Zero,
		Given:        decimal.Zero,
		FinalValue:   decimal.Zero,
	}
}

func (t *Totals) add(r Row) {
	t.Rows++
	t.InitialValue = t.InitialValue.Add(r.InitialValue)
	t.EntriesValue = t.EntriesValue.Add(r.EntriesValue)
	t.ExitsValue = t.ExitsValue.Add(r.ExitsValue)
	t.Received = t.Received.Add(r.Received)
	t.Given = t.Given.Add(r.Given)
	t.FinalValue = t.FinalValue.Add(r.FinalValue)
}

// Snapshot implements adjustment.Snapshotter with a fresh consolidation.
func (e *Engine) Snapshot(ctx context.Context, periodID id.ID, ledgerBatchID *id.ID) (*adjustment.Snapshot, error) {
	result, err := e.Consolidate(ctx, periodID, Options{LedgerBatchID: ledgerBatchID})
	if err != nil {
		return nil, err
	}

	snap := &adjustment.Snapshot{
		LedgerBatchID:  result.Resolution.LedgerBatchID,
		LedgerDegraded: result.Resolution.IsDegraded(period.DimensionLedger),
		Positions:      make(map[itemcode.Code]adjustment.Position, len(result.Rows)),
	}
	for _, row := range result.Rows {
		snap.Positions[row.Code] = adjustment.Position{Quantity: row.FinalQty, Unit: row.Unit}
	}
	return snap, nil
}
