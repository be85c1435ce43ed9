// Package aggregation sums incoming and outgoing line records per item code.
package aggregation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"estoque/internal/core/diag"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
)

// Total is the aggregate of one item code.
type Total struct {
	Code        itemcode.Code   `json:"code"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
	Lines       int             `json:"lines"`
	Overridden  int             `json:"overridden,omitempty"`
	Converted   int             `json:"converted,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
}

// Aggregate is the per-code result of one aggregation call.
type Aggregate struct {
	Items     map[itemcode.Code]*Total `json:"items"`
	LinesRead int                      `json:"linesRead"`
	LinesUsed int                      `json:"linesUsed"`
	Issues    []diag.Issue             `json:"issues,omitempty"`
}

// Get returns the total of code, or a zero total.
func (a *Aggregate) Get(code itemcode.Code) Total {
	if t, ok := a.Items[code]; ok {
		return *t
	}
	return Total{Code: code, Quantity: decimal.Zero, Value: decimal.Zero}
}

// Codes returns the aggregated codes in ascending order.
func (a *Aggregate) Codes() []itemcode.Code {
	out := make([]itemcode.Code, 0, len(a.Items))
	for c := range a.Items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func emptyAggregate() *Aggregate {
	return &Aggregate{Items: map[itemcode.Code]*Total{}}
}

// lineKey is the identity of a source line. Line ids are assigned by the
// source file, so two batches may well both carry item "1".
type lineKey struct {
	batchID id.ID
	lineID  string
}

// accumulator is created once per aggregation call and is the single place
// where line identity is tracked, so overlapping page fetches can never count
// a line twice.
type accumulator struct {
	seen   map[lineKey]struct{}
	agg    *Aggregate
	report diag.Report
}

func newAccumulator() *accumulator {
	return &accumulator{
		seen: make(map[lineKey]struct{}),
		agg:  emptyAggregate(),
	}
}

// admit reports whether the line should be counted. The first occurrence of
// a line id within its batch wins; later ones are dropped with a warning.
func (a *accumulator) admit(ctx context.Context, lineID string, batchID id.ID) bool {
	a.agg.LinesRead++

	if lineID == "" {
		a.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeMissingLineID,
			"line without source identifier excluded").
			With("batch_id", batchID))
		return false
	}
	key := lineKey{batchID: batchID, lineID: lineID}
	if _, dup := a.seen[key]; dup {
		a.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeDuplicateLine,
			"duplicate line %s discarded, first occurrence kept", lineID).
			With("line_id", lineID).
			With("batch_id", batchID))
		return false
	}
	a.seen[key] = struct{}{}
	return true
}

// code normalizes the line's code, reporting and rejecting blanks.
func (a *accumulator) code(ctx context.Context, lineID string, raw itemcode.Code) (itemcode.Code, bool) {
	c, err := itemcode.Normalize(string(raw))
	if err != nil {
		a.report.Add(ctx, diag.New(diag.KindDataIntegrity, diag.CodeInvalidLineCode,
			"line %s has no item code, excluded", lineID).
			With("line_id", lineID))
		return "", false
	}
	return c, true
}

func (a *accumulator) add(code itemcode.Code, qty, value decimal.Decimal, description, unit string) *Total {
	t, ok := a.agg.Items[code]
	if !ok {
		t = &Total{Code: code, Quantity: decimal.Zero, Value: decimal.Zero}
		a.agg.Items[code] = t
	}
	t.Quantity = t.Quantity.Add(qty)
	t.Value = t.Value.Add(value)
	t.Lines++
	if t.Description == "" {
		t.Description = description
	}
	if t.Unit == "" {
		t.Unit = unit
	}
	a.agg.LinesUsed++
	return t
}

func (a *accumulator) result() *Aggregate {
	a.agg.Issues = a.report.Issues
	return a.agg
}
