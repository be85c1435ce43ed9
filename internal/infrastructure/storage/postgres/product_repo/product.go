// Package product_repo provides the PostgreSQL implementation of product.Repository.
package product_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain/catalogs/product"
	"estoque/internal/infrastructure/storage/postgres"
)

const (
	productsTable    = "rec_products"
	conversionsTable = "rec_conversions"
)

var (
	productColumns    = postgres.ExtractDBColumns[product.Product]()
	conversionColumns = postgres.ExtractDBColumns[product.Conversion]()
)

var _ product.Repository = (*Repo)(nil)

// Repo implements product.Repository. Ledger and catalog products share one
// table, told apart by origin.
type Repo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

// NewRepo creates a new product repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *Repo) selectProducts(ctx context.Context, q squirrel.SelectBuilder) ([]product.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return out, nil
}

func (r *Repo) ListLedgerProducts(ctx context.Context, batchID id.ID) ([]product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"origin": product.OriginLedger, "batch_id": batchID}).
		OrderBy("code")
	return r.selectProducts(ctx, q)
}

func (r *Repo) catalogQuery(codes []itemcode.Code) squirrel.SelectBuilder {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"origin": product.OriginCatalog})
	if len(codes) > 0 {
		q = q.Where(squirrel.Eq{"code": codes})
	}
	return q.OrderBy("code")
}

func (r *Repo) ListCatalogProducts(ctx context.Context, codes []itemcode.Code) ([]product.Product, error) {
	return r.selectProducts(ctx, r.catalogQuery(codes))
}

func (r *Repo) upsertCatalogQuery(p *product.Product) squirrel.InsertBuilder {
	return r.builder.Insert(productsTable).
		Columns("code", "batch_id", "origin", "description", "unit", "updated_at").
		Values(p.Code, nil, product.OriginCatalog, p.Description, p.Unit, p.UpdatedAt).
		Suffix("ON CONFLICT (code) WHERE origin = 'catalog' DO UPDATE SET " +
			"description = EXCLUDED.description, " +
			"unit = EXCLUDED.unit, " +
			"updated_at = EXCLUDED.updated_at")
}

func (r *Repo) UpsertCatalogProduct(ctx context.Context, p *product.Product) error {
	sql, args, err := r.upsertCatalogQuery(p).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert catalog product: %w", postgres.MapError(err))
	}
	return nil
}

func (r *Repo) InsertLedgerProducts(ctx context.Context, products []product.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	for i := range products {
		products[i].Origin = product.OriginLedger
	}

	if r.txManager.GetTx(ctx) != nil {
		return postgres.CopyStructs(ctx, r.inserter, productsTable, productColumns, products)
	}
	var n int64
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = postgres.CopyStructs(ctx, r.inserter, productsTable, productColumns, products)
		return err
	})
	return n, err
}

func (r *Repo) conversionsQuery(code *itemcode.Code) squirrel.SelectBuilder {
	q := r.builder.Select(conversionColumns...).From(conversionsTable)
	if code != nil {
		q = q.Where(squirrel.Eq{"code": *code})
	}
	return q.OrderBy("code", "from_unit")
}

func (r *Repo) ListConversions(ctx context.Context, code *itemcode.Code) ([]product.Conversion, error) {
	sql, args, err := r.conversionsQuery(code).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []product.Conversion
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return out, nil
}

func (r *Repo) CreateConversion(ctx context.Context, c *product.Conversion) error {
	sql, args, err := r.builder.Insert(conversionsTable).
		Columns(conversionColumns...).
		Values(c.ID, c.Code, c.FromUnit, c.ToUnit, c.Factor, c.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		err = postgres.MapError(err)
		if apperror.HasCode(err, apperror.CodeConflict) {
			return apperror.NewDuplicate("conversion", "fromUnit", c.FromUnit).WithDetail("code", c.Code)
		}
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

func (r *Repo) DeleteConversion(ctx context.Context, conversionID id.ID) error {
	sql, args, err := r.builder.Delete(conversionsTable).
		Where(squirrel.Eq{"id": conversionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete conversion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("conversion", conversionID)
	}
	return nil
}
