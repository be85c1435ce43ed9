// Package adjustment keeps the ledger of manual balance transfers between item
// codes. A transfer moves quantity from a code holding a surplus (the positive
// code, donor) to a code in deficit (the negative code, receiver), typically
// because the same physical good was recorded under two codes.
package adjustment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
)

// Transfer is immutable once stored; it can only be deleted.
type Transfer struct {
	ID            id.ID           `db:"id" json:"id"`
	PeriodID      id.ID           `db:"period_id" json:"periodId"`
	LedgerBatchID *id.ID          `db:"ledger_batch_id" json:"ledgerBatchId,omitempty"`
	NegativeCode  itemcode.Code   `db:"cod_negativo" json:"codNegativo"`
	PositiveCode  itemcode.Code   `db:"cod_positivo" json:"codPositivo"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost      decimal.Decimal `db:"unit_cost" json:"unitCost"`
	TotalValue    decimal.Decimal `db:"total_value" json:"totalValue"`
	Overdraw      bool            `db:"overdraw" json:"overdraw"`
	Note          string          `db:"note" json:"note,omitempty"`
	CreatedBy     string          `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Scope selects the transfers that apply to one consolidation.
// A nil LedgerBatchID matches transfers recorded without a ledger batch.
type Scope struct {
	PeriodID      id.ID
	LedgerBatchID *id.ID
}

// Matches reports whether t falls inside the scope.
func (s Scope) Matches(t Transfer) bool {
	return t.PeriodID == s.PeriodID && id.Equal(t.LedgerBatchID, s.LedgerBatchID)
}

// OverdrawPolicy decides what happens when a transfer asks for more than the
// donor code currently holds.
type OverdrawPolicy string

const (
	// OverdrawReject rejects every overdraw.
	OverdrawReject OverdrawPolicy = "reject"
	// OverdrawAllowUnitMismatch rejects overdraws between codes of the same
	// unit and allows them, flagged, when the units differ.
	OverdrawAllowUnitMismatch OverdrawPolicy = "allow_unit_mismatch"
	// OverdrawAllow allows every overdraw, flagged.
	OverdrawAllow OverdrawPolicy = "allow"
)

// DefaultOverdrawPolicy is used when nothing is configured.
const DefaultOverdrawPolicy = OverdrawAllowUnitMismatch

// ParseOverdrawPolicy parses a configured policy name. Empty means default.
func ParseOverdrawPolicy(s string) (OverdrawPolicy, error) {
	switch p := OverdrawPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultOverdrawPolicy, nil
	case OverdrawReject, OverdrawAllowUnitMismatch, OverdrawAllow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overdraw policy %q", s)
	}
}
