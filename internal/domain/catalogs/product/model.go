// Package product holds item descriptions and the unit conversion catalog.
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
)

// Origin tells where a product description came from.
type Origin string

const (
	// OriginLedger: the product registry shipped inside a ledger batch.
	OriginLedger Origin = "ledger"
	// OriginCatalog: the merchant-maintained secondary catalog.
	OriginCatalog Origin = "catalog"
)

// Product is a description/unit pair for an item code.
type Product struct {
	Code        itemcode.Code `db:"code" json:"code"`
	BatchID     *id.ID        `db:"batch_id" json:"batchId,omitempty"`
	Origin      Origin        `db:"origin" json:"origin"`
	Description string        `db:"description" json:"description"`
	Unit        string        `db:"unit" json:"unit"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// Conversion converts quantities of Code expressed in FromUnit into ToUnit
// (the stock unit): qty_to = qty_from * Factor.
type Conversion struct {
	ID        id.ID           `db:"id" json:"id"`
	Code      itemcode.Code   `db:"code" json:"code"`
	FromUnit  string          `db:"from_unit" json:"fromUnit"`
	ToUnit    string          `db:"to_unit" json:"toUnit"`
	Factor    decimal.Decimal `db:"factor" json:"factor"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Validate checks conversion fields.
func (c *Conversion) Validate() error {
	if c.Code.IsZero() {
		return apperror.NewInvalidItemCode("code", "")
	}
	if NormalizeUnit(c.FromUnit) == "" {
		return apperror.NewValidation("fromUnit is required").WithDetail("field", "fromUnit")
	}
	if NormalizeUnit(c.ToUnit) == "" {
		return apperror.NewValidation("toUnit is required").WithDetail("field", "toUnit")
	}
	if !c.Factor.IsPositive() {
		return apperror.NewValidation("factor must be positive").WithDetail("factor", c.Factor.String())
	}
	return nil
}

// NormalizeUnit upper-cases u and strips every whitespace character, so
// "cx ", "CX" and "C X" compare equal.
func NormalizeUnit(u string) string {
	return strings.ToUpper(strings.Join(strings.Fields(u), ""))
}
