package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"estoque/internal/core/tx"
	"estoque/pkg/logger"
)

var tracer = otel.Tracer("estoque/tx")

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// Timeouts bound the statements of each kind of transaction. Zero disables
// the limit.
type Timeouts struct {
	// Write applies to imports, overrides and transfers.
	Write time.Duration
	// Snapshot applies to the read-only consolidation snapshot, which reads
	// every line of a period.
	Snapshot time.Duration
}

// DefaultTimeouts returns the limits used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{Write: 30 * time.Second, Snapshot: 2 * time.Minute}
}

// txMode is the pgx configuration of one kind of transaction.
type txMode struct {
	iso     pgx.TxIsoLevel
	access  pgx.TxAccessMode
	timeout time.Duration
}

func (m txMode) statementTimeoutSQL() string {
	if m.timeout <= 0 {
		return ""
	}
	return fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.timeout.Milliseconds())
}

// TxManager runs reconciliation writes and snapshots. Nested calls join the
// transaction stored in ctx, whatever mode they ask for.
type TxManager struct {
	pool     *pgxpool.Pool
	write    txMode
	snapshot txMode
}

// NewTxManager creates a transaction manager over pool.
func NewTxManager(pool *Pool, timeouts Timeouts) *TxManager {
	return &TxManager{
		pool:     pool.Pool,
		write:    txMode{iso: pgx.ReadCommitted, access: pgx.ReadWrite, timeout: timeouts.Write},
		snapshot: txMode{iso: pgx.RepeatableRead, access: pgx.ReadOnly, timeout: timeouts.Snapshot},
	}
}

type txKey struct{}

// RunInTransaction executes fn in a read-committed write transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, m.write, fn)
}

// ReadOnly executes fn in a read-only repeatable-read transaction so every
// source of a consolidation is read from one snapshot.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, m.snapshot, fn)
}

func (m *TxManager) run(ctx context.Context, mode txMode, fn func(ctx context.Context) error) error {
	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(mode.iso)),
			attribute.String("tx.access_mode", string(mode.access)),
		))
	defer span.End()

	t, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: mode.iso, AccessMode: mode.access})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if stmt := mode.statementTimeoutSQL(); stmt != "" {
		if _, err := t.Exec(ctx, stmt); err != nil {
			_ = t.Rollback(ctx)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		// The caller's context may already be cancelled.
		if rbErr := t.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		span.RecordError(err)
		return err
	}

	if err := t.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTx returns the transaction carried by ctx, or nil.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both the pool and a transaction, so repos work
// inside and outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction carried by ctx, or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t
	}
	return m.pool
}
