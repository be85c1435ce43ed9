// Package importer loads JSON bundles of already-extracted records into a
// store: batches with their stock lines, documents, entry and exit lines, and
// ledger products.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"estoque/internal/core/apperror"
	"estoque/internal/core/types"
	"estoque/internal/domain/period"
)

// Bundle is the top-level document read by the import CLI.
type Bundle struct {
	Batches []BatchBundle `json:"batches"`
}

// BatchBundle is one import batch. Period is "YYYY-MM"; a missing period
// leaves the batch unlinked. Base marks the batch as its period's base.
type BatchBundle struct {
	SourceType period.SourceType `json:"sourceType"`
	Name       string            `json:"name"`
	Period     string            `json:"period"`
	Base       bool              `json:"base"`

	StockLines []StockLine     `json:"stockLines,omitempty"`
	Documents  []DocumentEntry `json:"documents,omitempty"`
	EntryLines []EntryLine     `json:"entryLines,omitempty"`
	ExitLines  []ExitLine      `json:"exitLines,omitempty"`
	Products   []Product       `json:"products,omitempty"`
}

// StockLine quantities and values, like those of entry and exit lines,
// accept "10.5", 10.5, "10,5" and "1.234,56".
type StockLine struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Unit        string       `json:"unit"`
	Quantity    types.Number `json:"quantity"`
	UnitCost    types.Number `json:"unitCost"`
}

// DocumentEntry is referenced by entry lines through Key.
type DocumentEntry struct {
	Key      string    `json:"key"`
	Number   string    `json:"number"`
	IssuedAt time.Time `json:"issuedAt"`
}

type EntryLine struct {
	ID          string       `json:"id"`
	Document    string       `json:"document"`
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Unit        string       `json:"unit"`
	Quantity    types.Number `json:"quantity"`
	ValueTotal  types.Number `json:"valueTotal"`
}

type ExitLine struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Unit        string       `json:"unit"`
	Quantity    types.Number `json:"quantity"`
	ValueTotal  types.Number `json:"valueTotal"`
}

type Product struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

// Decode reads a bundle and checks its batch headers.
func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	for i, batch := range b.Batches {
		if !batch.SourceType.Valid() {
			return nil, apperror.NewValidation("unknown source type").
				WithDetail("batch", i).
				WithDetail("sourceType", batch.SourceType)
		}
		if batch.Period != "" {
			if _, _, err := ParsePeriod(batch.Period); err != nil {
				return nil, apperror.NewValidation(err.Error()).WithDetail("batch", i)
			}
		}
		if batch.Base && batch.Period == "" {
			return nil, apperror.NewValidation("a base batch needs a period").WithDetail("batch", i)
		}
	}
	return &b, nil
}

var periodPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (year, month int, err error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("period %q must be YYYY-MM", s)
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("period %q has an invalid month", s)
	}
	return year, month, nil
}
