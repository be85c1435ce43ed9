// Package adjustment_repo provides the PostgreSQL implementation of adjustment.Repository.
package adjustment_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
	"estoque/internal/infrastructure/storage/postgres"
)

const transfersTable = "rec_transfers"

var transferColumns = postgres.ExtractDBColumns[adjustment.Transfer]()

var _ adjustment.Repository = (*Repo)(nil)

// Repo implements adjustment.Repository.
type Repo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRepo creates a new transfer repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *Repo) Create(ctx context.Context, t *adjustment.Transfer) error {
	data := postgres.StructToMap(t)
	values := make([]any, 0, len(transferColumns))
	for _, col := range transferColumns {
		values = append(values, data[col])
	}

	sql, args, err := r.builder.Insert(transfersTable).
		Columns(transferColumns...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer: %w", postgres.MapError(err))
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, transferID id.ID) (*adjustment.Transfer, error) {
	sql, args, err := r.builder.Select(transferColumns...).
		From(transfersTable).
		Where(squirrel.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t adjustment.Transfer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transfer", transferID)
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &t, nil
}

func (r *Repo) Delete(ctx context.Context, transferID id.ID) error {
	sql, args, err := r.builder.Delete(transfersTable).
		Where(squirrel.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transfer", transferID)
	}
	return nil
}

// listQuery matches the ledger batch null-safely: a scope without a ledger
// batch selects the transfers recorded without one.
func (r *Repo) listQuery(scope adjustment.Scope) squirrel.SelectBuilder {
	return r.builder.Select(transferColumns...).
		From(transfersTable).
		Where(squirrel.Eq{"period_id": scope.PeriodID}).
		Where(squirrel.Expr("ledger_batch_id IS NOT DISTINCT FROM ?", scope.LedgerBatchID)).
		OrderBy("created_at", "id")
}

func (r *Repo) List(ctx context.Context, scope adjustment.Scope) ([]adjustment.Transfer, error) {
	sql, args, err := r.listQuery(scope).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []adjustment.Transfer
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return out, nil
}
