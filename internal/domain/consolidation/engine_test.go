package consolidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/aggregation"
	"estoque/internal/domain/consolidation"
	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/storage/memory"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

type env struct {
	store  *memory.Store
	fx     *memory.Fixture
	engine *consolidation.Engine
	period id.ID
	stock  id.ID
	ledger id.ID
	nf     id.ID
	doc    id.ID
}

func newEnv() *env {
	store := memory.New()
	fx := memory.NewFixture(store)
	e := &env{store: store, fx: fx}
	e.engine = consolidation.NewEngine(consolidation.Deps{
		Resolver:  period.NewResolver(store),
		Stock:     aggregation.NewInitialStock(store, 2),
		Entries:   aggregation.NewEntries(store, store, 2),
		Exits:     aggregation.NewExits(store, 2),
		Transfers: store,
		Products:  store,
		TxManager: store,
	})
	e.period = fx.Period(2024, 1)
	e.stock = fx.Batch(&e.period, period.SourceStock, true)
	e.ledger = fx.Batch(&e.period, period.SourceLedger, true)
	e.nf = fx.Batch(&e.period, period.SourceInvoice, true)
	e.doc = fx.Document(e.ledger)
	return e
}

func (e *env) consolidate(t *testing.T) *consolidation.Result {
	t.Helper()
	res, err := e.engine.Consolidate(context.Background(), e.period, consolidation.Options{})
	require.NoError(t, err)
	return res
}

func (e *env) transfer(negative, positive, qty string) adjustment.Transfer {
	ledger := e.ledger
	t := adjustment.Transfer{
		ID:            id.New(),
		PeriodID:      e.period,
		LedgerBatchID: &ledger,
		NegativeCode:  itemcode.MustNormalize(negative),
		PositiveCode:  itemcode.MustNormalize(positive),
		Quantity:      d(qty),
		UnitCost:      decimal.Zero,
		TotalValue:    decimal.Zero,
		CreatedBy:     "test",
		CreatedAt:     time.Now().UTC(),
	}
	_ = e.store.Create(context.Background(), &t)
	return t
}

func row(t *testing.T, res *consolidation.Result, code string) consolidation.Row {
	t.Helper()
	r, ok := res.Row(itemcode.MustNormalize(code))
	require.True(t, ok, "row %s missing", code)
	return r
}

func TestConsolidate_TheoreticalIdentity(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "10", "100", "2", "CANETA AZUL", "UN")
	e.fx.Entry(e.ledger, e.doc, "", "10", "50", "100", "UN")
	e.fx.Exit(e.nf, "", "10", "30", "90", "CANETA", "UN")

	r := row(t, e.consolidate(t), "10")

	assertDec(t, "100", r.InitialQty, "initial qty")
	assertDec(t, "200", r.InitialValue, "initial value")
	assertDec(t, "50", r.EntriesQty, "entries qty")
	assertDec(t, "30", r.ExitsQty, "exits qty")
	assertDec(t, "120", r.TheoreticalQty, "theoretical")
	require.True(t, r.AverageCost.Valid)
	assertDec(t, "2", r.AverageCost.Decimal, "average cost")
	assertDec(t, "120", r.FinalQty, "final qty")
	assertDec(t, "240", r.FinalValue, "final value")
	assert.False(t, r.ExitOnly)
}

func TestConsolidate_OverrideAndConversionFeedEntries(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "20", "0", "0", "FITA", "UN")
	line := e.fx.Entry(e.ledger, e.doc, "", "20", "12", "60", "UN")
	e.fx.Override(e.ledger, line, "5")
	e.fx.Conversion("21", "CX", "UN", "10")
	e.fx.Entry(e.ledger, e.doc, "", "21", "3", "90", "CX")

	res := e.consolidate(t)

	assertDec(t, "5", row(t, res, "20").EntriesQty, "overridden entries")
	assertDec(t, "30", row(t, res, "21").EntriesQty, "converted entries")
	assertDec(t, "90", row(t, res, "21").EntriesValue, "converted value")
}

func TestConsolidate_TransfersConserveQuantity(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "1", "50", "1", "A", "UN")
	e.fx.Stock(e.stock, "2", "10", "1", "B", "UN")

	before := e.consolidate(t)
	e.transfer("2", "1", "20")
	after := e.consolidate(t)

	donor, receiver := row(t, after, "1"), row(t, after, "2")
	assertDec(t, "20", donor.Given, "given")
	assertDec(t, "20", receiver.Received, "received")
	assertDec(t, "30", donor.FinalQty, "donor final")
	assertDec(t, "30", receiver.FinalQty, "receiver final")

	sum := func(res *consolidation.Result) decimal.Decimal {
		total := decimal.Zero
		for _, r := range res.Rows {
			total = total.Add(r.FinalQty)
		}
		return total
	}
	assert.True(t, sum(before).Equal(sum(after)), "transfers must not create or destroy quantity")
	assert.Equal(t, 1, after.Transfers)
	assertDec(t, "20", after.Totals.Received, "total received")
	assertDec(t, "20", after.Totals.Given, "total given")
}

func TestConsolidate_DeletingTransferRestoresResult(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "1", "50", "1", "A", "UN")
	e.fx.Stock(e.stock, "2", "10", "1", "B", "UN")

	before := e.consolidate(t)
	tr := e.transfer("2", "1", "20")
	require.NoError(t, e.store.Delete(context.Background(), tr.ID))
	after := e.consolidate(t)

	require.Equal(t, len(before.Rows), len(after.Rows))
	for i := range before.Rows {
		assert.True(t, before.Rows[i].FinalQty.Equal(after.Rows[i].FinalQty))
		assert.True(t, before.Rows[i].FinalValue.Equal(after.Rows[i].FinalValue))
	}
}

func TestConsolidate_UndefinedAverageCostUsesRawFlows(t *testing.T) {
	e := newEnv()
	e.fx.Exit(e.nf, "", "99", "4", "48", "PORCA", "UN")

	res := e.consolidate(t)
	r := row(t, res, "99")

	assert.False(t, r.AverageCost.Valid)
	assert.True(t, r.ExitOnly)
	assertDec(t, "-4", r.TheoreticalQty, "theoretical")
	assertDec(t, "-48", r.FinalValue, "final value")
	assert.Equal(t, "PORCA", r.Description)
	assert.Equal(t, consolidation.OriginExits, r.DescriptionOrigin)

	count := 0
	for _, is := range res.Issues {
		if is.Code == diag.CodeUndefinedAverageCost {
			count++
		}
	}
	assert.Equal(t, 1, count, "one summary issue per run")
}

func TestConsolidate_TransferOnlyCodeGetsPlaceholders(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "1", "50", "1", "A", "UN")
	e.transfer("777", "1", "5")

	r := row(t, e.consolidate(t), "777")

	assert.Equal(t, consolidation.PlaceholderDescription, r.Description)
	assert.Equal(t, consolidation.PlaceholderUnit, r.Unit)
	assert.Equal(t, consolidation.OriginPlaceholder, r.UnitOrigin)
	assertDec(t, "5", r.FinalQty, "final qty")
}

func TestConsolidate_DescriptionChain(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "1", "1", "1", "FROM STOCK", "")
	e.fx.LedgerProduct(e.ledger, "1", "FROM LEDGER", "KG")

	e.fx.Entry(e.ledger, e.doc, "", "2", "1", "1", "")
	e.fx.LedgerProduct(e.ledger, "2", "FROM LEDGER", "")
	e.fx.CatalogProduct("2", "FROM CATALOG", "PC")

	e.fx.Exit(e.nf, "", "3", "1", "1", "FROM EXITS", "M")
	e.fx.CatalogProduct("3", "FROM CATALOG", "")

	res := e.consolidate(t)

	one := row(t, res, "1")
	assert.Equal(t, "FROM STOCK", one.Description)
	assert.Equal(t, consolidation.OriginStock, one.DescriptionOrigin)
	assert.Equal(t, "KG", one.Unit)
	assert.Equal(t, consolidation.OriginLedger, one.UnitOrigin)

	two := row(t, res, "2")
	assert.Equal(t, "FROM LEDGER", two.Description)
	assert.Equal(t, "PC", two.Unit)
	assert.Equal(t, consolidation.OriginCatalog, two.UnitOrigin)

	three := row(t, res, "3")
	assert.Equal(t, "FROM CATALOG", three.Description)
	assert.Equal(t, "M", three.Unit)
	assert.Equal(t, consolidation.OriginExits, three.UnitOrigin)
}

func TestConsolidate_UsesOnlyBaseBatches(t *testing.T) {
	e := newEnv()
	otherStock := e.fx.Batch(&e.period, period.SourceStock, false)
	otherNF := e.fx.Batch(&e.period, period.SourceInvoice, false)

	e.fx.Stock(e.stock, "1", "10", "1", "A", "UN")
	e.fx.Stock(otherStock, "1", "1000", "1", "A", "UN")
	e.fx.Exit(otherNF, "", "1", "500", "500", "A", "UN")

	r := row(t, e.consolidate(t), "1")
	assertDec(t, "10", r.InitialQty, "initial")
	assertDec(t, "0", r.ExitsQty, "exits")
}

func TestConsolidate_LedgerHintFromSamePeriod(t *testing.T) {
	e := newEnv()
	alt := e.fx.Batch(&e.period, period.SourceLedger, false)
	altDoc := e.fx.Document(alt)
	e.fx.Entry(e.ledger, e.doc, "", "1", "10", "10", "UN")
	e.fx.Entry(alt, altDoc, "", "1", "3", "3", "UN")

	res, err := e.engine.Consolidate(context.Background(), e.period, consolidation.Options{LedgerBatchID: &alt})
	require.NoError(t, err)

	assertDec(t, "3", row(t, res, "1").EntriesQty, "entries of hinted batch")
	assert.Equal(t, alt, *res.Resolution.LedgerBatchID)
}

func TestConsolidate_AmbiguousLedgerDegrades(t *testing.T) {
	store := memory.New()
	fx := memory.NewFixture(store)
	p := fx.Period(2024, 2)
	stock := fx.Batch(&p, period.SourceStock, true)
	l1 := fx.Batch(&p, period.SourceLedger, false)
	fx.Batch(&p, period.SourceLedger, false)
	fx.Stock(stock, "1", "10", "1", "A", "UN")
	fx.Entry(l1, fx.Document(l1), "", "1", "5", "5", "UN")

	engine := consolidation.NewEngine(consolidation.Deps{
		Resolver:  period.NewResolver(store),
		Stock:     aggregation.NewInitialStock(store, 0),
		Entries:   aggregation.NewEntries(store, store, 0),
		Exits:     aggregation.NewExits(store, 0),
		Transfers: store,
		Products:  store,
	})

	res, err := engine.Consolidate(context.Background(), p, consolidation.Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Degraded, period.DimensionLedger)
	assert.True(t, diag.Has(res.Issues, diag.CodeAmbiguousLedger))
	r := row(t, res, "1")
	assertDec(t, "0", r.EntriesQty, "entries of degraded ledger")
	assertDec(t, "10", r.FinalQty, "final")
}

func TestConsolidate_RowsSortedAndTotalled(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "3", "1", "10", "C", "UN")
	e.fx.Stock(e.stock, "1", "1", "5", "A", "UN")
	e.fx.Exit(e.nf, "", "2", "1", "7", "B", "UN")

	res := e.consolidate(t)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, itemcode.Code("000001"), res.Rows[0].Code)
	assert.Equal(t, itemcode.Code("000003"), res.Rows[2].Code)
	assert.Equal(t, 3, res.Totals.Rows)
	assertDec(t, "15", res.Totals.InitialValue, "initial value total")
	assertDec(t, "7", res.Totals.ExitsValue, "exits value total")
	assertDec(t, "8", res.Totals.FinalValue, "final value total")
}

func TestConsolidate_EmptyPeriod(t *testing.T) {
	store := memory.New()
	fx := memory.NewFixture(store)
	p := fx.Period(2024, 6)
	engine := consolidation.NewEngine(consolidation.Deps{
		Resolver:  period.NewResolver(store),
		Stock:     aggregation.NewInitialStock(store, 0),
		Entries:   aggregation.NewEntries(store, store, 0),
		Exits:     aggregation.NewExits(store, 0),
		Transfers: store,
		Products:  store,
	})

	res, err := engine.Consolidate(context.Background(), p, consolidation.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Degraded)
}

func TestSnapshot_ReportsFinalPositions(t *testing.T) {
	e := newEnv()
	e.fx.Stock(e.stock, "1", "50", "1", "A", "CX")
	e.transfer("2", "1", "20")

	snap, err := e.engine.Snapshot(context.Background(), e.period, nil)
	require.NoError(t, err)

	assert.False(t, snap.LedgerDegraded)
	assert.Equal(t, e.ledger, *snap.LedgerBatchID)
	assertDec(t, "30", snap.Positions["000001"].Quantity, "donor position")
	assert.Equal(t, "CX", snap.Positions["000001"].Unit)
	assertDec(t, "20", snap.Positions["000002"].Quantity, "receiver position")
}
