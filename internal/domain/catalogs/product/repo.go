package product

import (
	"context"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
)

// Repository stores products and conversions.
type Repository interface {
	// ListLedgerProducts returns the product registry of one ledger batch.
	ListLedgerProducts(ctx context.Context, batchID id.ID) ([]Product, error)

	// ListCatalogProducts returns the secondary catalog entries for codes
	// (all entries when codes is empty).
	ListCatalogProducts(ctx context.Context, codes []itemcode.Code) ([]Product, error)

	UpsertCatalogProduct(ctx context.Context, p *Product) error
	InsertLedgerProducts(ctx context.Context, products []Product) (int64, error)

	// ListConversions returns conversions of code, or every conversion when code is nil.
	ListConversions(ctx context.Context, code *itemcode.Code) ([]Conversion, error)
	CreateConversion(ctx context.Context, c *Conversion) error

	// DeleteConversion returns apperror NotFound when nothing was deleted.
	DeleteConversion(ctx context.Context, conversionID id.ID) error
}
