// Package period_repo provides the PostgreSQL implementation of period.Repository.
package period_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/storage/postgres"
)

const (
	periodsTable = "rec_periods"
	batchesTable = "rec_batches"
)

var (
	periodColumns = postgres.ExtractDBColumns[period.Period]()
	batchColumns  = postgres.ExtractDBColumns[period.Batch]()
)

var _ period.Repository = (*Repo)(nil)

// Repo implements period.Repository.
type Repo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRepo creates a new period repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *Repo) insert(ctx context.Context, table string, columns []string, entity any) error {
	data := postgres.StructToMap(entity)
	values := make([]any, 0, len(columns))
	for _, col := range columns {
		values = append(values, data[col])
	}

	sql, args, err := r.builder.Insert(table).Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, postgres.MapError(err))
	}
	return nil
}

func (r *Repo) exec(ctx context.Context, q squirrel.Sqlizer, entity string, entityID any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s statement: %w", entity, err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", entity, postgres.MapError(err))
	}
	if entityID != nil && tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, entityID)
	}
	return nil
}

func (r *Repo) CreatePeriod(ctx context.Context, p *period.Period) error {
	err := r.insert(ctx, periodsTable, periodColumns, p)
	if apperror.HasCode(err, apperror.CodeConflict) {
		return apperror.NewDuplicate("period", "year/month", p.DefaultLabel())
	}
	return err
}

func (r *Repo) GetPeriod(ctx context.Context, periodID id.ID) (*period.Period, error) {
	sql, args, err := r.builder.Select(periodColumns...).
		From(periodsTable).
		Where(squirrel.Eq{"id": periodID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p period.Period
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("period", periodID)
		}
		return nil, fmt.Errorf("get period: %w", err)
	}
	return &p, nil
}

func (r *Repo) ListPeriods(ctx context.Context) ([]period.Period, error) {
	sql, args, err := r.builder.Select(periodColumns...).
		From(periodsTable).
		OrderBy("year DESC", "month DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []period.Period
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return out, nil
}

func (r *Repo) GetActivePeriod(ctx context.Context) (*period.Period, error) {
	sql, args, err := r.builder.Select(periodColumns...).
		From(periodsTable).
		Where(squirrel.Eq{"is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p period.Period
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active period: %w", err)
	}
	return &p, nil
}

// SetActivePeriod flips the flag of every period in one statement, so no
// reader ever sees two active periods.
func (r *Repo) SetActivePeriod(ctx context.Context, periodID id.ID) error {
	return r.exec(ctx, r.setActiveQuery(periodID), "period", nil)
}

func (r *Repo) setActiveQuery(periodID id.ID) squirrel.UpdateBuilder {
	return r.builder.Update(periodsTable).
		Set("is_active", squirrel.Expr("(id = ?)", periodID))
}

func (r *Repo) CreateBatch(ctx context.Context, b *period.Batch) error {
	return r.insert(ctx, batchesTable, batchColumns, b)
}

func (r *Repo) GetBatch(ctx context.Context, batchID id.ID) (*period.Batch, error) {
	sql, args, err := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b period.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *Repo) ListBatches(ctx context.Context, filter period.BatchFilter) ([]period.Batch, error) {
	sql, args, err := r.listBatchesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []period.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

func (r *Repo) listBatchesQuery(filter period.BatchFilter) squirrel.SelectBuilder {
	q := r.builder.Select(batchColumns...).From(batchesTable)
	if filter.PeriodID != nil {
		q = q.Where(squirrel.Eq{"period_id": *filter.PeriodID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"source_type": filter.Type})
	}
	if filter.BaseOnly {
		q = q.Where(squirrel.Eq{"is_base": true})
	}
	return q.OrderBy("imported_at", "id")
}

func (r *Repo) SetBatchBase(ctx context.Context, batchID id.ID, isBase bool) error {
	q := r.builder.Update(batchesTable).
		Set("is_base", isBase).
		Where(squirrel.Eq{"id": batchID})
	return r.exec(ctx, q, "batch", batchID)
}

func (r *Repo) ClearBase(ctx context.Context, periodID id.ID, t period.SourceType) error {
	q := r.builder.Update(batchesTable).
		Set("is_base", false).
		Where(squirrel.Eq{"period_id": periodID, "source_type": t, "is_base": true})
	return r.exec(ctx, q, "batch", nil)
}

func (r *Repo) LinkBatch(ctx context.Context, batchID id.ID, periodID *id.ID) error {
	q := r.builder.Update(batchesTable).
		Set("period_id", periodID).
		Set("is_base", false).
		Where(squirrel.Eq{"id": batchID})
	return r.exec(ctx, q, "batch", batchID)
}
