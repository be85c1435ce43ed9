package product_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoque/internal/core/itemcode"
	"estoque/internal/domain/catalogs/product"
)

func TestCatalogQuery(t *testing.T) {
	repo := NewRepo(nil)

	sql, args, err := repo.catalogQuery(nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT code, batch_id, origin, description, unit, updated_at FROM rec_products WHERE origin = $1 ORDER BY code",
		sql)
	assert.Equal(t, []any{product.OriginCatalog}, args)

	codes := []itemcode.Code{itemcode.MustNormalize("1"), itemcode.MustNormalize("2")}
	sql, args, err = repo.catalogQuery(codes).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE origin = $1 AND code IN ($2,$3)")
	assert.Len(t, args, 3)
}

func TestUpsertCatalogQuery(t *testing.T) {
	repo := NewRepo(nil)

	sql, args, err := repo.upsertCatalogQuery(&product.Product{
		Code:        itemcode.MustNormalize("42"),
		Description: "PARAFUSO",
		Unit:        "UN",
		UpdatedAt:   time.Now(),
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ON CONFLICT (code) WHERE origin = 'catalog' DO UPDATE SET")
	require.Len(t, args, 6)
	assert.Equal(t, product.OriginCatalog, args[2])
}

func TestConversionsQuery(t *testing.T) {
	repo := NewRepo(nil)

	sql, args, err := repo.conversionsQuery(nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, code, from_unit, to_unit, factor, created_at FROM rec_conversions ORDER BY code, from_unit", sql)
	assert.Empty(t, args)

	code := itemcode.MustNormalize("7")
	sql, args, err = repo.conversionsQuery(&code).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE code = $1")
	assert.Equal(t, []any{code}, args)
}
