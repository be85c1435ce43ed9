package consolidation

import (
	"estoque/internal/core/itemcode"
)

// Placeholders used when no source knows a code.
const (
	PlaceholderDescription = "SEM DESCRICAO"
	PlaceholderUnit        = "UN"
)

// Origin names of the description chain.
const (
	OriginStock       = "stock"
	OriginLedger      = "ledger_catalog"
	OriginCatalog     = "catalog"
	OriginExits       = "exits"
	OriginPlaceholder = "placeholder"
)

// Descriptor is what one source knows about a code. Empty fields mean unknown.
type Descriptor struct {
	Description string
	Unit        string
}

// Describer is one step of the description chain.
type Describer struct {
	Origin string
	Find   func(code itemcode.Code) Descriptor
}

// FromMap builds a Describer backed by a map.
func FromMap(origin string, m map[itemcode.Code]Descriptor) Describer {
	return Describer{
		Origin: origin,
		Find:   func(code itemcode.Code) Descriptor { return m[code] },
	}
}

// Described is the outcome of running the chain for one code.
type Described struct {
	Description       string
	DescriptionOrigin string
	Unit              string
	UnitOrigin        string
}

// Describe walks the chain in order. Description and unit are resolved
// independently: each takes the first non-empty value, falling back to the
// placeholders.
func Describe(code itemcode.Code, chain []Describer) Described {
	var out Described
	for _, step := range chain {
		if out.Description != "" && out.Unit != "" {
			break
		}
		d := step.Find(code)
		if out.Description == "" && d.Description != "" {
			out.Description = d.Description
			out.DescriptionOrigin = step.Origin
		}
		if out.Unit == "" && d.Unit != "" {
			out.Unit = d.Unit
			out.UnitOrigin = step.Origin
		}
	}
	if out.Description == "" {
		out.Description = PlaceholderDescription
		out.DescriptionOrigin = OriginPlaceholder
	}
	if out.Unit == "" {
		out.Unit = PlaceholderUnit
		out.UnitOrigin = OriginPlaceholder
	}
	return out
}
