// Package period manages accounting periods, the import batches linked to them,
// and resolves which batches form the base of a period.
package period

import (
	"fmt"
	"time"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
)

// SourceType is the kind of records a batch holds.
type SourceType string

const (
	SourceStock   SourceType = "stock"   // initial stock snapshot
	SourceLedger  SourceType = "ledger"  // incoming-goods ledger (fiscal file)
	SourceInvoice SourceType = "invoice" // outgoing-goods invoices
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceStock, SourceLedger, SourceInvoice:
		return true
	}
	return false
}

// SingleBase reports whether at most one batch of this type may be base per period.
func (t SourceType) SingleBase() bool {
	return t == SourceStock || t == SourceLedger
}

// Period is an accounting month.
type Period struct {
	ID        id.ID     `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Month     int       `db:"month" json:"month"`
	Label     string    `db:"label" json:"label"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks period fields.
func (p *Period) Validate() error {
	if p.Year < 2000 || p.Year > 2100 {
		return apperror.NewValidation("year must be between 2000 and 2100").WithDetail("year", p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return apperror.NewValidation("month must be between 1 and 12").WithDetail("month", p.Month)
	}
	return nil
}

// DefaultLabel renders "MM/YYYY".
func (p *Period) DefaultLabel() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// Batch is one import of records from a single source file.
type Batch struct {
	ID         id.ID      `db:"id" json:"id"`
	PeriodID   *id.ID     `db:"period_id" json:"periodId,omitempty"`
	Type       SourceType `db:"source_type" json:"sourceType"`
	Name       string     `db:"name" json:"name"`
	IsBase     bool       `db:"is_base" json:"isBase"`
	ImportedAt time.Time  `db:"imported_at" json:"importedAt"`
}

// Validate checks batch fields.
func (b *Batch) Validate() error {
	if !b.Type.Valid() {
		return apperror.NewValidation("unknown source type").WithDetail("sourceType", b.Type)
	}
	if b.IsBase && b.PeriodID == nil {
		return apperror.NewValidation("a base batch must be linked to a period")
	}
	return nil
}

// BelongsTo reports whether the batch is linked to periodID.
func (b *Batch) BelongsTo(periodID id.ID) bool {
	return b.PeriodID != nil && *b.PeriodID == periodID
}

// BatchFilter narrows ListBatches.
type BatchFilter struct {
	PeriodID *id.ID
	Type     SourceType // empty = any
	BaseOnly bool
}
