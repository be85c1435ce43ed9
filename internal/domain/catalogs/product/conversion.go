package product

import (
	"github.com/shopspring/decimal"

	"estoque/internal/core/itemcode"
)

// Match describes how a conversion factor was found.
type Match int

const (
	MatchNone            Match = iota // no conversion rows for the code
	MatchUnit                         // document unit equals a row's FromUnit
	MatchStockUnit                    // document unit already is the stock unit
	MatchSingleCandidate              // every row agrees on one target and factor
	MatchAmbiguous                    // rows exist but none applies
)

// Converted reports whether the factor came from a conversion row.
func (m Match) Converted() bool {
	return m == MatchUnit || m == MatchSingleCandidate
}

type candidate struct {
	from, to string
	factor   decimal.Decimal
}

// ConversionTable is an immutable lookup built once per aggregation.
type ConversionTable struct {
	byCode map[itemcode.Code][]candidate
}

// NewConversionTable indexes conversions by code.
func NewConversionTable(conversions []Conversion) *ConversionTable {
	t := &ConversionTable{byCode: make(map[itemcode.Code][]candidate, len(conversions))}
	for _, c := range conversions {
		t.byCode[c.Code] = append(t.byCode[c.Code], candidate{
			from:   NormalizeUnit(c.FromUnit),
			to:     NormalizeUnit(c.ToUnit),
			factor: c.Factor,
		})
	}
	return t
}

// Lookup returns the factor that converts a quantity of code expressed in
// unit into the stock unit. The unit comparison ignores case and spaces.
// When the unit matches nothing, a code whose rows all share one target unit
// and one factor still converts with that factor.
func (t *ConversionTable) Lookup(code itemcode.Code, unit string) (decimal.Decimal, Match) {
	one := decimal.NewFromInt(1)

	cands := t.byCode[code]
	if len(cands) == 0 {
		return one, MatchNone
	}

	u := NormalizeUnit(unit)
	for _, c := range cands {
		if c.from == u {
			return c.factor, MatchUnit
		}
	}
	for _, c := range cands {
		if c.to == u {
			return one, MatchStockUnit
		}
	}

	first := cands[0]
	for _, c := range cands[1:] {
		if c.to != first.to || !c.factor.Equal(first.factor) {
			return one, MatchAmbiguous
		}
	}
	return first.factor, MatchSingleCandidate
}
