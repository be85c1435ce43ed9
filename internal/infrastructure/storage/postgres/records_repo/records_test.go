package records_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/id"
	"estoque/internal/domain"
	"estoque/internal/domain/records"
)

// squirrel.Eq passes driver.Valuer arguments through Value(), so ids show up
// as strings in ToSql args.

func TestEntryPageQuery(t *testing.T) {
	repo := NewRepo(nil)
	batchID := id.New()

	t.Run("first page", func(t *testing.T) {
		sql, args, err := repo.entryPageQuery(batchID, domain.PageRequest{Limit: 500}).ToSql()
		require.NoError(t, err)

		assert.Equal(t,
			"SELECT l.id, l.row_id, l.batch_id, l.document_id, l.code, l.description, l.unit, l.quantity, l.value_total, o.adjusted_quantity "+
				"FROM rec_entry_lines l LEFT JOIN rec_entry_overrides o ON o.batch_id = l.batch_id AND o.line_id = l.id "+
				"WHERE l.batch_id = $1 ORDER BY l.id, l.row_id LIMIT 500",
			sql)
		assert.Equal(t, []any{batchID.String()}, args)
	})

	t.Run("after cursor", func(t *testing.T) {
		after := domain.Cursor{LineID: "L-9", Seq: 41}
		sql, args, err := repo.entryPageQuery(batchID, domain.PageRequest{After: after, Limit: 2}).ToSql()
		require.NoError(t, err)

		assert.Contains(t, sql, "WHERE l.batch_id = $1 AND (l.id, l.row_id) > ($2, $3) ORDER BY l.id, l.row_id LIMIT 2")
		assert.Equal(t, []any{batchID.String(), "L-9", int64(41)}, args)
	})
}

func TestStockQuery_DefaultLimit(t *testing.T) {
	repo := NewRepo(nil)
	batchID := id.New()

	sql, _, err := repo.stockQuery(batchID, domain.PageRequest{}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, row_id, batch_id, code, description, unit, quantity, unit_cost FROM rec_stock_lines WHERE batch_id = $1 ORDER BY id, row_id LIMIT 1000",
		sql)
}

func TestExitQuery_SpansBatches(t *testing.T) {
	repo := NewRepo(nil)
	a, b := id.New(), id.New()

	after := domain.Cursor{LineID: "X", Seq: 7}
	sql, args, err := repo.exitQuery([]id.ID{a, b}, domain.PageRequest{After: after, Limit: 10}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, row_id, batch_id, code, description, unit, quantity, value_total FROM rec_exit_lines "+
			"WHERE batch_id IN ($1,$2) AND (id, row_id) > ($3, $4) ORDER BY id, row_id LIMIT 10",
		sql)
	assert.Equal(t, []any{a.String(), b.String(), "X", int64(7)}, args)
}

func TestEntryLineQuery_ScopedToBatch(t *testing.T) {
	repo := NewRepo(nil)
	batchID := id.New()

	sql, args, err := repo.entryLineQuery(batchID, "E-1").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE l.batch_id = $1 AND l.id = $2 ORDER BY l.row_id LIMIT 1")
	assert.Equal(t, []any{batchID.String(), "E-1"}, args)
}

func TestUpsertOverrideQuery(t *testing.T) {
	repo := NewRepo(nil)
	batchID := id.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	sql, args, err := repo.upsertOverrideQuery(records.EntryOverride{
		BatchID:   batchID,
		LineID:    "L-1",
		Quantity:  decimal.NewFromInt(5),
		UpdatedBy: "ana",
		UpdatedAt: now,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO rec_entry_overrides (batch_id,line_id,adjusted_quantity,updated_by,updated_at) VALUES ($1,$2,$3,$4,$5)")
	assert.Contains(t, sql, "ON CONFLICT (batch_id, line_id) DO UPDATE SET adjusted_quantity = EXCLUDED.adjusted_quantity")
	require.Len(t, args, 5)
	assert.Equal(t, "L-1", args[1])
}

func TestCopyColumnsSkipRowID(t *testing.T) {
	assert.NotContains(t, entryColumns, "adjusted_quantity")
	assert.Contains(t, stockColumns, rowIDColumn)
	for _, cols := range [][]string{stockCopyColumns, entryCopyColumns, exitCopyColumns} {
		assert.NotContains(t, cols, rowIDColumn)
		assert.Contains(t, cols, "batch_id")
	}
}
