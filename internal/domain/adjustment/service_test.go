package adjustment_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/apperror"
	appctx "estoque/internal/core/context"
	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/aggregation"
	"estoque/internal/domain/audit"
	"estoque/internal/domain/consolidation"
	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/storage/memory"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type env struct {
	store  *memory.Store
	fx     *memory.Fixture
	engine *consolidation.Engine
	period id.ID
	stock  id.ID
	ledger id.ID
}

// newEnv seeds code 1 (50 UN), code 2 (10 UN) and code 3 (8 CX).
func newEnv() *env {
	store := memory.New()
	fx := memory.NewFixture(store)
	e := &env{store: store, fx: fx}
	e.engine = consolidation.NewEngine(consolidation.Deps{
		Resolver:  period.NewResolver(store),
		Stock:     aggregation.NewInitialStock(store, 0),
		Entries:   aggregation.NewEntries(store, store, 0),
		Exits:     aggregation.NewExits(store, 0),
		Transfers: store,
		Products:  store,
	})
	e.period = fx.Period(2024, 1)
	e.stock = fx.Batch(&e.period, period.SourceStock, true)
	e.ledger = fx.Batch(&e.period, period.SourceLedger, true)

	fx.Stock(e.stock, "1", "50", "2", "PARAFUSO", "UN")
	fx.Stock(e.stock, "2", "10", "2", "PARAFUSO 3MM", "UN")
	fx.Stock(e.stock, "3", "8", "20", "PARAFUSO CX", "CX")
	return e
}

func (e *env) service(policy adjustment.OverdrawPolicy) *adjustment.Service {
	return adjustment.NewService(e.store, e.engine, e.store, policy)
}

func (e *env) input(negative, positive, qty string) adjustment.CreateInput {
	return adjustment.CreateInput{
		PeriodID:     e.period,
		NegativeCode: negative,
		PositiveCode: positive,
		Quantity:     d(qty),
		UnitCost:     d("2"),
	}
}

func TestCreate_StoresScopedTransfer(t *testing.T) {
	e := newEnv()
	ctx := appctx.WithOperator(context.Background(), &appctx.Operator{ID: "maria"})

	res, err := e.service("").Create(ctx, e.input(" 2", "000001", "20"))
	require.NoError(t, err)

	tr := res.Transfer
	assert.Equal(t, "000002", tr.NegativeCode.String())
	assert.Equal(t, "000001", tr.PositiveCode.String())
	assert.True(t, d("40").Equal(tr.TotalValue))
	assert.False(t, tr.Overdraw)
	assert.Equal(t, "maria", tr.CreatedBy)
	require.NotNil(t, tr.LedgerBatchID)
	assert.Equal(t, e.ledger, *tr.LedgerBatchID)
	assert.Empty(t, res.Warnings)

	stored, err := e.service("").List(ctx, adjustment.Scope{PeriodID: e.period, LedgerBatchID: &e.ledger})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, tr.ID, stored[0].ID)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv()
	svc := e.service("")

	tests := []struct {
		name string
		in   adjustment.CreateInput
		code string
	}{
		{"blank negative code", e.input("  ", "1", "1"), apperror.CodeInvalidItemCode},
		{"blank positive code", e.input("2", "", "1"), apperror.CodeInvalidItemCode},
		{"same code after normalization", e.input("1", "0001", "1"), apperror.CodeValidation},
		{"zero quantity", e.input("2", "1", "0"), apperror.CodeValidation},
		{"negative quantity", e.input("2", "1", "-3"), apperror.CodeValidation},
		{"unknown receiver", e.input("404", "1", "1"), apperror.CodeUnknownItemCode},
		{"unknown donor", e.input("2", "404", "1"), apperror.CodeUnknownItemCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	negCost := e.input("2", "1", "1")
	negCost.UnitCost = d("-1")
	_, err := svc.Create(context.Background(), negCost)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreate_OverdrawPolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   adjustment.OverdrawPolicy
		donor    string
		rejected bool
		warning  string
	}{
		{"reject same unit", adjustment.OverdrawReject, "1", true, ""},
		{"reject different unit", adjustment.OverdrawReject, "3", true, ""},
		{"unit mismatch policy, same unit", adjustment.OverdrawAllowUnitMismatch, "1", true, ""},
		{"unit mismatch policy, different unit", adjustment.OverdrawAllowUnitMismatch, "3", false, diag.CodeOverdrawUnitsDiffer},
		{"allow", adjustment.OverdrawAllow, "1", false, diag.CodeOverdrawAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()

			res, err := e.service(tt.policy).Create(context.Background(), e.input("2", tt.donor, "60"))

			if tt.rejected {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeOverdraw), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Transfer.Overdraw)
			assert.True(t, diag.Has(res.Warnings, tt.warning))
		})
	}
}

func TestCreate_DonorBalanceIncludesPriorTransfers(t *testing.T) {
	e := newEnv()
	svc := e.service(adjustment.OverdrawReject)
	ctx := context.Background()

	_, err := svc.Create(ctx, e.input("2", "1", "40"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, e.input("2", "1", "11"))
	assert.True(t, apperror.HasCode(err, apperror.CodeOverdraw))

	_, err = svc.Create(ctx, e.input("2", "1", "10"))
	assert.NoError(t, err)
}

func TestCreate_RejectsAmbiguousLedger(t *testing.T) {
	store := memory.New()
	fx := memory.NewFixture(store)
	p := fx.Period(2024, 1)
	stock := fx.Batch(&p, period.SourceStock, true)
	fx.Batch(&p, period.SourceLedger, false)
	fx.Batch(&p, period.SourceLedger, false)
	fx.Stock(stock, "1", "10", "1", "A", "UN")
	fx.Stock(stock, "2", "10", "1", "B", "UN")

	engine := consolidation.NewEngine(consolidation.Deps{
		Resolver:  period.NewResolver(store),
		Stock:     aggregation.NewInitialStock(store, 0),
		Entries:   aggregation.NewEntries(store, store, 0),
		Exits:     aggregation.NewExits(store, 0),
		Transfers: store,
		Products:  store,
	})
	svc := adjustment.NewService(store, engine, store, "")

	_, err := svc.Create(context.Background(), adjustment.CreateInput{
		PeriodID: p, NegativeCode: "1", PositiveCode: "2", Quantity: d("1"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeConfiguration))
}

func TestDelete(t *testing.T) {
	e := newEnv()
	svc := e.service("")
	ctx := context.Background()

	err := svc.Delete(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	res, err := svc.Create(ctx, e.input("2", "1", "5"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, res.Transfer.ID))

	left, err := svc.List(ctx, adjustment.Scope{PeriodID: e.period, LedgerBatchID: &e.ledger})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHooks_FeedAuditTrail(t *testing.T) {
	e := newEnv()
	svc := e.service("")
	recorder := audit.NewRecorder(e.store)
	recorder.AttachTransfers(svc.Hooks())

	ctx := appctx.WithOperator(context.Background(), &appctx.Operator{ID: "joao"})
	res, err := svc.Create(ctx, e.input("2", "1", "5"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, res.Transfer.ID))

	history, err := recorder.History(ctx, res.Transfer.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, audit.ActionDelete, history[0].Action)
	assert.Equal(t, audit.ActionCreate, history[1].Action)
	assert.Equal(t, "joao", history[1].OperatorID)
	assert.Contains(t, string(history[1].Snapshot), `"codNegativo":"000002"`)
}

func TestParseOverdrawPolicy(t *testing.T) {
	p, err := adjustment.ParseOverdrawPolicy("")
	require.NoError(t, err)
	assert.Equal(t, adjustment.DefaultOverdrawPolicy, p)

	p, err = adjustment.ParseOverdrawPolicy(" REJECT ")
	require.NoError(t, err)
	assert.Equal(t, adjustment.OverdrawReject, p)

	_, err = adjustment.ParseOverdrawPolicy("sometimes")
	assert.Error(t, err)
}
