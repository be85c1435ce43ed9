package adjustment_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
)

func TestListQuery_NullSafeLedgerScope(t *testing.T) {
	repo := NewRepo(nil)
	periodID := id.New()
	ledgerID := id.New()

	tests := []struct {
		name      string
		scope     adjustment.Scope
		wantLedge any
	}{
		{name: "with ledger batch", scope: adjustment.Scope{PeriodID: periodID, LedgerBatchID: &ledgerID}, wantLedge: &ledgerID},
		{name: "without ledger batch", scope: adjustment.Scope{PeriodID: periodID}, wantLedge: (*id.ID)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.scope).ToSql()
			require.NoError(t, err)

			assert.Contains(t, sql, "FROM rec_transfers WHERE period_id = $1 AND ledger_batch_id IS NOT DISTINCT FROM $2 ORDER BY created_at, id")
			require.Len(t, args, 2)
			assert.Equal(t, periodID.String(), args[0], "squirrel.Eq passes ids through driver.Valuer")
			assert.Equal(t, tt.wantLedge, args[1])
		})
	}
}

func TestTransferColumns(t *testing.T) {
	assert.Equal(t, []string{
		"id", "period_id", "ledger_batch_id", "cod_negativo", "cod_positivo",
		"quantity", "unit_cost", "total_value", "overdraw", "note",
		"created_by", "created_at",
	}, transferColumns)
}
