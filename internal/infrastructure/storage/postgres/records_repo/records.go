// Package records_repo provides the PostgreSQL line sources, entry overrides
// and the COPY-based importer.
package records_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain"
	"estoque/internal/domain/records"
	"estoque/internal/infrastructure/storage/postgres"
)

const (
	stockLinesTable = "rec_stock_lines"
	documentsTable  = "rec_documents"
	entryLinesTable = "rec_entry_lines"
	overridesTable  = "rec_entry_overrides"
	exitLinesTable  = "rec_exit_lines"
)

// rowIDColumn is the bigserial tiebreaker of line tables. It is read for
// paging and never written.
const rowIDColumn = "row_id"

var (
	stockColumns    = postgres.ExtractDBColumns[records.InitialStockLine]()
	documentColumns = postgres.ExtractDBColumns[records.Document]()
	exitColumns     = postgres.ExtractDBColumns[records.ExitLine]()
	// entryColumns are the stored columns; adjusted_quantity lives in the
	// overrides table.
	entryColumns = []string{"id", rowIDColumn, "batch_id", "document_id", "code", "description", "unit", "quantity", "value_total"}

	stockCopyColumns = withoutColumn(stockColumns, rowIDColumn)
	exitCopyColumns  = withoutColumn(exitColumns, rowIDColumn)
	entryCopyColumns = withoutColumn(entryColumns, rowIDColumn)
)

func withoutColumn(columns []string, drop string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}

var (
	_ records.Source        = (*Repo)(nil)
	_ records.OverrideStore = (*Repo)(nil)
	_ records.Importer      = (*Repo)(nil)
)

// Repo implements records.Source, records.OverrideStore and records.Importer.
type Repo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

// NewRepo creates a new records repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// keyset applies the (line id, row id) cursor shared by every line source.
// Line id columns are declared COLLATE "C", so the database orders them
// bytewise like domain.Cursor does.
func keyset(q squirrel.SelectBuilder, alias string, page domain.PageRequest) squirrel.SelectBuilder {
	limit := page.Limit
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	idCol, rowCol := alias+"id", alias+rowIDColumn
	if !page.After.IsZero() {
		q = q.Where(squirrel.Expr("("+idCol+", "+rowCol+") > (?, ?)", page.After.LineID, page.After.Seq))
	}
	return q.OrderBy(idCol, rowCol).Limit(uint64(limit))
}

func selectInto[T any](ctx context.Context, r *Repo, q squirrel.SelectBuilder, what string) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}
	var out []T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", what, err)
	}
	return out, nil
}

func (r *Repo) stockQuery(batchID id.ID, page domain.PageRequest) squirrel.SelectBuilder {
	q := r.builder.Select(stockColumns...).
		From(stockLinesTable).
		Where(squirrel.Eq{"batch_id": batchID})
	return keyset(q, "", page)
}

func (r *Repo) ListStockLines(ctx context.Context, batchID id.ID, page domain.PageRequest) ([]records.InitialStockLine, error) {
	return selectInto[records.InitialStockLine](ctx, r, r.stockQuery(batchID, page), "stock lines")
}

func (r *Repo) ListDocuments(ctx context.Context, batchID id.ID) ([]records.Document, error) {
	q := r.builder.Select(documentColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("id")
	return selectInto[records.Document](ctx, r, q, "documents")
}

func (r *Repo) entryQuery() squirrel.SelectBuilder {
	cols := make([]string, 0, len(entryColumns)+1)
	for _, c := range entryColumns {
		cols = append(cols, "l."+c)
	}
	cols = append(cols, "o.adjusted_quantity")

	return r.builder.Select(cols...).
		From(entryLinesTable + " l").
		LeftJoin(overridesTable + " o ON o.batch_id = l.batch_id AND o.line_id = l.id")
}

func (r *Repo) entryPageQuery(batchID id.ID, page domain.PageRequest) squirrel.SelectBuilder {
	return keyset(r.entryQuery().Where(squirrel.Eq{"l.batch_id": batchID}), "l.", page)
}

func (r *Repo) ListEntryLines(ctx context.Context, batchID id.ID, page domain.PageRequest) ([]records.EntryLine, error) {
	return selectInto[records.EntryLine](ctx, r, r.entryPageQuery(batchID, page), "entry lines")
}

func (r *Repo) exitQuery(batchIDs []id.ID, page domain.PageRequest) squirrel.SelectBuilder {
	q := r.builder.Select(exitColumns...).
		From(exitLinesTable).
		Where(squirrel.Eq{"batch_id": batchIDs})
	return keyset(q, "", page)
}

func (r *Repo) ListExitLines(ctx context.Context, batchIDs []id.ID, page domain.PageRequest) ([]records.ExitLine, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}
	return selectInto[records.ExitLine](ctx, r, r.exitQuery(batchIDs, page), "exit lines")
}

func (r *Repo) entryLineQuery(batchID id.ID, lineID string) squirrel.SelectBuilder {
	return r.entryQuery().
		Where(squirrel.Eq{"l.batch_id": batchID, "l.id": lineID}).
		OrderBy("l." + rowIDColumn).
		Limit(1)
}

func (r *Repo) GetEntryLine(ctx context.Context, batchID id.ID, lineID string) (*records.EntryLine, error) {
	sql, args, err := r.entryLineQuery(batchID, lineID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var line records.EntryLine
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &line, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("entry line", lineID).WithDetail("batchId", batchID)
		}
		return nil, fmt.Errorf("get entry line: %w", err)
	}
	return &line, nil
}

func (r *Repo) upsertOverrideQuery(o records.EntryOverride) squirrel.InsertBuilder {
	return r.builder.Insert(overridesTable).
		Columns("batch_id", "line_id", "adjusted_quantity", "updated_by", "updated_at").
		Values(o.BatchID, o.LineID, o.Quantity, o.UpdatedBy, o.UpdatedAt).
		Suffix("ON CONFLICT (batch_id, line_id) DO UPDATE SET " +
			"adjusted_quantity = EXCLUDED.adjusted_quantity, " +
			"updated_by = EXCLUDED.updated_by, " +
			"updated_at = EXCLUDED.updated_at")
}

func (r *Repo) SetEntryOverride(ctx context.Context, o records.EntryOverride) error {
	sql, args, err := r.upsertOverrideQuery(o).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert override: %w", postgres.MapError(err))
	}
	return nil
}

func (r *Repo) ClearEntryOverride(ctx context.Context, batchID id.ID, lineID string) error {
	sql, args, err := r.builder.Delete(overridesTable).
		Where(squirrel.Eq{"batch_id": batchID, "line_id": lineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// copyInTx runs a COPY inside the caller's transaction or, when there is
// none, inside a new one.
func copyInTx[T any](ctx context.Context, r *Repo, table string, columns []string, items []T) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if r.txManager.GetTx(ctx) != nil {
		return postgres.CopyStructs(ctx, r.inserter, table, columns, items)
	}

	var n int64
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = postgres.CopyStructs(ctx, r.inserter, table, columns, items)
		return err
	})
	return n, err
}

func (r *Repo) InsertStockLines(ctx context.Context, lines []records.InitialStockLine) (int64, error) {
	return copyInTx(ctx, r, stockLinesTable, stockCopyColumns, lines)
}

func (r *Repo) InsertDocuments(ctx context.Context, docs []records.Document) (int64, error) {
	return copyInTx(ctx, r, documentsTable, documentColumns, docs)
}

func (r *Repo) InsertEntryLines(ctx context.Context, lines []records.EntryLine) (int64, error) {
	return copyInTx(ctx, r, entryLinesTable, entryCopyColumns, lines)
}

func (r *Repo) InsertExitLines(ctx context.Context, lines []records.ExitLine) (int64, error) {
	return copyInTx(ctx, r, exitLinesTable, exitCopyColumns, lines)
}
