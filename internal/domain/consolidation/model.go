// Package consolidation combines the initial stock, entries, exits and manual
// transfers of a period into one adjusted position per item code.
package consolidation

import (
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/internal/domain/period"
)

// Options tunes one consolidation run.
type Options struct {
	// LedgerBatchID pins the ledger batch (what-if review). A batch of
	// another period is ignored and reported.
	LedgerBatchID *id.ID
	// StockBatchID pins the stock snapshot batch, same rules.
	StockBatchID *id.ID
}

// Row is the consolidated position of one code. Rows are always derived,
// never stored.
type Row struct {
	Code              itemcode.Code       `json:"code"`
	Description       string              `json:"description"`
	DescriptionOrigin string              `json:"descriptionOrigin"`
	Unit              string              `json:"unit"`
	UnitOrigin        string              `json:"unitOrigin"`
	InitialQty        decimal.Decimal     `json:"initialQty"`
	InitialValue      decimal.Decimal     `json:"initialValue"`
	EntriesQty        decimal.Decimal     `json:"entriesQty"`
	EntriesValue      decimal.Decimal     `json:"entriesValue"`
	ExitsQty          decimal.Decimal     `json:"exitsQty"`
	ExitsValue        decimal.Decimal     `json:"exitsValue"`
	TheoreticalQty    decimal.Decimal     `json:"theoreticalQty"`
	AverageCost       decimal.NullDecimal `json:"averageCost"`
	Received          decimal.Decimal     `json:"received"`
	Given             decimal.Decimal     `json:"given"`
	FinalQty          decimal.Decimal     `json:"finalQty"`
	FinalValue        decimal.Decimal     `json:"finalValue"`
	ExitOnly          bool                `json:"exitOnly"`
}

// Totals sums the monetary and adjustment columns over all rows.
type Totals struct {
	Rows         int             `json:"rows"`
	InitialValue decimal.Decimal `json:"initialValue"`
	EntriesValue decimal.Decimal `json:"entriesValue"`
	ExitsValue   decimal.Decimal `json:"exitsValue"`
	Received     decimal.Decimal `json:"received"`
	Given        decimal.Decimal `json:"given"`
	FinalValue   decimal.Decimal `json:"finalValue"`
}

// Result is the outcome of Consolidate.
type Result struct {
	PeriodID   id.ID              `json:"periodId"`
	Resolution *period.Resolution `json:"resolution"`
	Rows       []Row              `json:"rows"`
	Totals     Totals             `json:"totals"`
	Transfers  int                `json:"transfers"`
	Degraded   []period.Dimension `json:"degraded,omitempty"`
	Issues     []diag.Issue       `json:"issues,omitempty"`
	ComputedAt time.Time          `json:"computedAt"`
}

// Row returns the row of code.
func (r *Result) Row(code itemcode.Code) (Row, bool) {
	for _, row := range r.Rows {
		if row.Code == code {
			return row, true
		}
	}
	return Row{}, false
}
