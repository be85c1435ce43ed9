package period_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/apperror"
	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/storage/memory"
)

func newService() (*memory.Store, *period.Service) {
	store := memory.New()
	return store, period.NewService(store, store)
}

func TestService_CreatePeriod(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	p, err := svc.CreatePeriod(ctx, 2024, 5, "  ")
	require.NoError(t, err)
	assert.Equal(t, "05/2024", p.Label)

	_, err = svc.CreatePeriod(ctx, 2024, 13, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.CreatePeriod(ctx, 2024, 5, "again")
	require.Error(t, err)
}

func TestService_ActivateSwitchesFlag(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	_, err := svc.Active(ctx)
	assert.True(t, apperror.IsNotFound(err))

	jan, err := svc.CreatePeriod(ctx, 2024, 1, "")
	require.NoError(t, err)
	feb, err := svc.CreatePeriod(ctx, 2024, 2, "")
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, jan.ID))
	require.NoError(t, svc.Activate(ctx, feb.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, feb.ID, active.ID)

	periods, err := svc.List(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, p := range periods {
		if p.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestService_SetBaseKeepsSingleStockBase(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	p, err := svc.CreatePeriod(ctx, 2024, 1, "")
	require.NoError(t, err)

	first, err := svc.RegisterBatch(ctx, period.RegisterBatchInput{PeriodID: &p.ID, Type: period.SourceStock, Name: "inventario jan"})
	require.NoError(t, err)
	assert.False(t, first.IsBase)
	second, err := svc.RegisterBatch(ctx, period.RegisterBatchInput{PeriodID: &p.ID, Type: period.SourceStock, Name: "inventario jan v2"})
	require.NoError(t, err)

	_, err = svc.SetBase(ctx, first.ID, true)
	require.NoError(t, err)
	_, err = svc.SetBase(ctx, second.ID, true)
	require.NoError(t, err)

	bases, err := svc.ListBatches(ctx, period.BatchFilter{PeriodID: &p.ID, Type: period.SourceStock, BaseOnly: true})
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, second.ID, bases[0].ID)
}

func TestService_SetBaseAllowsManyInvoiceBases(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	p, err := svc.CreatePeriod(ctx, 2024, 1, "")
	require.NoError(t, err)

	for _, name := range []string{"nfs 1", "nfs 2"} {
		b, err := svc.RegisterBatch(ctx, period.RegisterBatchInput{PeriodID: &p.ID, Type: period.SourceInvoice, Name: name})
		require.NoError(t, err)
		_, err = svc.SetBase(ctx, b.ID, true)
		require.NoError(t, err)
	}

	bases, err := svc.ListBatches(ctx, period.BatchFilter{PeriodID: &p.ID, Type: period.SourceInvoice, BaseOnly: true})
	require.NoError(t, err)
	assert.Len(t, bases, 2)
}

func TestService_SetBaseRequiresPeriod(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	b, err := svc.RegisterBatch(ctx, period.RegisterBatchInput{Type: period.SourceLedger, Name: "sped"})
	require.NoError(t, err)

	_, err = svc.SetBase(ctx, b.ID, true)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestService_LinkResetsBase(t *testing.T) {
	_, svc := newService()
	ctx := context.Background()

	jan, err := svc.CreatePeriod(ctx, 2024, 1, "")
	require.NoError(t, err)
	feb, err := svc.CreatePeriod(ctx, 2024, 2, "")
	require.NoError(t, err)

	b, err := svc.RegisterBatch(ctx, period.RegisterBatchInput{PeriodID: &jan.ID, Type: period.SourceLedger, Name: "sped"})
	require.NoError(t, err)
	_, err = svc.SetBase(ctx, b.ID, true)
	require.NoError(t, err)

	require.NoError(t, svc.Link(ctx, b.ID, &feb.ID))

	moved, err := svc.ListBatches(ctx, period.BatchFilter{PeriodID: &feb.ID})
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.False(t, moved[0].IsBase)
}

func TestService_RegisterBatchRejectsUnknownType(t *testing.T) {
	_, svc := newService()

	_, err := svc.RegisterBatch(context.Background(), period.RegisterBatchInput{Type: "spreadsheet", Name: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
