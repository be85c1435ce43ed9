// Package records holds the already-extracted line records the reconciliation
// consumes: the initial stock snapshot, incoming ledger documents and lines,
// and outgoing invoice lines. Parsing of the original files happens elsewhere.
package records

import (
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain"
)

// InitialStockLine is one row of the opening stock snapshot.
type InitialStockLine struct {
	ID          string          `db:"id" json:"id"`
	Seq         int64           `db:"row_id" json:"-"`
	BatchID     id.ID           `db:"batch_id" json:"batchId"`
	Code        itemcode.Code   `db:"code" json:"code"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unitCost"`
}

// Cursor is the paging position of the line.
func (l InitialStockLine) Cursor() domain.Cursor { return domain.Cursor{LineID: l.ID, Seq: l.Seq} }

// Value is quantity times unit cost.
func (l InitialStockLine) Value() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Document is an incoming fiscal document owning entry lines.
type Document struct {
	ID       id.ID     `db:"id" json:"id"`
	BatchID  id.ID     `db:"batch_id" json:"batchId"`
	Number   string    `db:"number" json:"number"`
	IssuedAt time.Time `db:"issued_at" json:"issuedAt"`
}

// EntryLine is one item line of an incoming document.
// AdjustedQuantity is a manual override stored apart from the document data.
type EntryLine struct {
	ID               string              `db:"id" json:"id"`
	Seq              int64               `db:"row_id" json:"-"`
	BatchID          id.ID               `db:"batch_id" json:"batchId"`
	DocumentID       id.ID               `db:"document_id" json:"documentId"`
	Code             itemcode.Code       `db:"code" json:"code"`
	Description      string              `db:"description" json:"description"`
	Unit             string              `db:"unit" json:"unit"`
	Quantity         decimal.Decimal     `db:"quantity" json:"quantity"`
	ValueTotal       decimal.Decimal     `db:"value_total" json:"valueTotal"`
	AdjustedQuantity decimal.NullDecimal `db:"adjusted_quantity" json:"adjustedQuantity"`
}

// Cursor is the paging position of the line.
func (l EntryLine) Cursor() domain.Cursor { return domain.Cursor{LineID: l.ID, Seq: l.Seq} }

// EffectiveQuantity is the override when present, the document quantity otherwise.
func (l EntryLine) EffectiveQuantity() decimal.Decimal {
	if l.AdjustedQuantity.Valid {
		return l.AdjustedQuantity.Decimal
	}
	return l.Quantity
}

// ExitLine is one item line of an outgoing invoice.
type ExitLine struct {
	ID          string          `db:"id" json:"id"`
	Seq         int64           `db:"row_id" json:"-"`
	BatchID     id.ID           `db:"batch_id" json:"batchId"`
	Code        itemcode.Code   `db:"code" json:"code"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	ValueTotal  decimal.Decimal `db:"value_total" json:"valueTotal"`
}

// Cursor is the paging position of the line.
func (l ExitLine) Cursor() domain.Cursor { return domain.Cursor{LineID: l.ID, Seq: l.Seq} }

// EntryOverride is a manual correction of an entry line's quantity. Line ids
// are only unique inside their batch, so the override is keyed by both.
type EntryOverride struct {
	BatchID   id.ID           `db:"batch_id" json:"batchId"`
	LineID    string          `db:"line_id" json:"lineId"`
	Quantity  decimal.Decimal `db:"adjusted_quantity" json:"adjustedQuantity"`
	UpdatedBy string          `db:"updated_by" json:"updatedBy"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}
