package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestNewTxManager_Modes(t *testing.T) {
	m := NewTxManager(&Pool{}, Timeouts{Write: 5 * time.Second})

	assert.Equal(t, pgx.ReadCommitted, m.write.iso)
	assert.Equal(t, pgx.ReadWrite, m.write.access)
	assert.Equal(t, pgx.RepeatableRead, m.snapshot.iso)
	assert.Equal(t, pgx.ReadOnly, m.snapshot.access)

	assert.Equal(t, "SET LOCAL statement_timeout = '5000ms'", m.write.statementTimeoutSQL())
	assert.Empty(t, m.snapshot.statementTimeoutSQL(), "zero disables the limit")
}

func TestDefaultTimeouts(t *testing.T) {
	d := DefaultTimeouts()
	assert.Equal(t, 30*time.Second, d.Write)
	assert.Greater(t, d.Snapshot, d.Write)
}

func TestTxManager_NestedCallJoinsOuterTransaction(t *testing.T) {
	m := &TxManager{}
	assert.Nil(t, m.GetTx(context.Background()))

	calls := 0
	var fake pgx.Tx = fakeTx{}
	ctx := context.WithValue(context.Background(), txKey{}, fake)
	err := m.ReadOnly(ctx, func(inner context.Context) error {
		calls++
		assert.Equal(t, fake, m.GetTx(inner))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, fake, m.GetQuerier(ctx))
}

// fakeTx stands in for a transaction already carried by the context; joining
// it must not touch the pool.
type fakeTx struct {
	pgx.Tx
}
