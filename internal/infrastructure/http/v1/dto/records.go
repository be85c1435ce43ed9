package dto

import (
	"github.com/shopspring/decimal"

	"estoque/internal/core/diag"
	"estoque/internal/domain/aggregation"
	"estoque/internal/domain/catalogs/product"
)

// SetOverrideRequest for PUT /batches/:id/entry-lines/:lineId/override.
type SetOverrideRequest struct {
	AdjustedQuantity decimal.Decimal `json:"adjustedQuantity"`
}

// CreateConversionRequest for POST /conversions.
type CreateConversionRequest struct {
	Code     string          `json:"code" binding:"required"`
	FromUnit string          `json:"fromUnit" binding:"required"`
	ToUnit   string          `json:"toUnit" binding:"required"`
	Factor   decimal.Decimal `json:"factor"`
}

// ToInput converts the request to a service input.
func (r CreateConversionRequest) ToInput() product.ConversionInput {
	return product.ConversionInput{
		Code:     r.Code,
		FromUnit: r.FromUnit,
		ToUnit:   r.ToUnit,
		Factor:   r.Factor,
	}
}

// AggregateResponse lists per-code totals in code order.
type AggregateResponse struct {
	Items     []aggregation.Total `json:"items"`
	LinesRead int                 `json:"linesRead"`
	LinesUsed int                 `json:"linesUsed"`
	Issues    []diag.Issue        `json:"issues,omitempty"`
}

// FromAggregate flattens an aggregate.
func FromAggregate(a *aggregation.Aggregate) AggregateResponse {
	items := make([]aggregation.Total, 0, len(a.Items))
	for _, code := range a.Codes() {
		items = append(items, a.Get(code))
	}
	return AggregateResponse{
		Items:     items,
		LinesRead: a.LinesRead,
		LinesUsed: a.LinesUsed,
		Issues:    a.Issues,
	}
}

// UpsertProductRequest for PUT /products/:code.
type UpsertProductRequest struct {
	Description string `json:"description" binding:"required"`
	Unit        string `json:"unit"`
}
