package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"estoque/internal/core/itemcode"
)

func conv(code, from, to string, factor int64) Conversion {
	return Conversion{
		Code:     itemcode.MustNormalize(code),
		FromUnit: from,
		ToUnit:   to,
		Factor:   decimal.NewFromInt(factor),
	}
}

func TestConversionTable_Lookup(t *testing.T) {
	table := NewConversionTable([]Conversion{
		conv("1", "CX", "UN", 10),
		conv("2", "CX", "UN", 12),
		conv("2", "FD", "UN", 24),
		conv("3", "DZ", "UN", 12),
		conv("3", "DUZIA", "UN", 12),
	})

	tests := []struct {
		name       string
		code       string
		unit       string
		wantFactor int64
		wantMatch  Match
	}{
		{name: "exact unit", code: "1", unit: "CX", wantFactor: 10, wantMatch: MatchUnit},
		{name: "case and space insensitive", code: "1", unit: " c x ", wantFactor: 10, wantMatch: MatchUnit},
		{name: "already stock unit", code: "1", unit: "un", wantFactor: 1, wantMatch: MatchStockUnit},
		{name: "single candidate fallback", code: "1", unit: "CAIXA", wantFactor: 10, wantMatch: MatchSingleCandidate},
		{name: "second row", code: "2", unit: "fd", wantFactor: 24, wantMatch: MatchUnit},
		{name: "ambiguous", code: "2", unit: "PCT", wantFactor: 1, wantMatch: MatchAmbiguous},
		{name: "rows agree on target and factor", code: "3", unit: "DZN", wantFactor: 12, wantMatch: MatchSingleCandidate},
		{name: "no conversion", code: "9", unit: "CX", wantFactor: 1, wantMatch: MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, match := table.Lookup(itemcode.MustNormalize(tt.code), tt.unit)
			assert.True(t, factor.Equal(decimal.NewFromInt(tt.wantFactor)), "factor %s", factor)
			assert.Equal(t, tt.wantMatch, match)
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, "CX", NormalizeUnit(" cx "))
	assert.Equal(t, "CX12", NormalizeUnit("cx 12"))
	assert.Equal(t, "", NormalizeUnit("   "))
}

func TestConversion_Validate(t *testing.T) {
	c := conv("1", "CX", "UN", 10)
	assert.NoError(t, c.Validate())

	c.Factor = decimal.Zero
	assert.Error(t, c.Validate())

	c = conv("1", " ", "UN", 10)
	assert.Error(t, c.Validate())
}
