// Package itemcode provides the canonical item code used to join records
// coming from the stock snapshot, the incoming ledger, sales invoices and
// manual transfers.
package itemcode

import (
	"errors"
	"strings"
)

// Width is the canonical code width. Shorter codes are left-padded with zeros.
const Width = 6

// ErrEmptyCode is returned for blank input. Callers must reject the record.
var ErrEmptyCode = errors.New("item code is empty")

// Code is a normalized item code. The zero value is not a valid code.
type Code string

// Normalize trims whitespace and left-pads raw to Width with zeros.
// Codes at or beyond Width pass through unchanged (never truncated), so
// Normalize(Normalize(x)) == Normalize(x) for every accepted x.
func Normalize(raw string) (Code, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyCode
	}
	if len(s) < Width {
		s = strings.Repeat("0", Width-len(s)) + s
	}
	return Code(s), nil
}

// MustNormalize is Normalize that panics on error.
// Use only for constants and tests.
func MustNormalize(raw string) Code {
	c, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// IsZero reports whether c is the zero value.
func (c Code) IsZero() bool { return c == "" }
