// Package types provides the numeric helpers shared by every reconciliation step.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses numbers as they arrive from extracted fiscal records.
// Both "1234.56" and the Brazilian "1.234,56" / "10,5" forms are accepted.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}

	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse number %q: %w", s, err)
	}
	return d, nil
}

// Number is a decimal read from JSON either as a number or as a string in
// any form ParseDecimal accepts. null leaves it zero.
type Number struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	d, err := ParseDecimal(raw)
	if err != nil {
		return err
	}
	n.Decimal = d
	return nil
}

// SafeDiv divides num by den. The result is null when den is not positive.
func SafeDiv(num, den decimal.Decimal) decimal.NullDecimal {
	if !den.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(num.Div(den))
}
