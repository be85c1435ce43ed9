package dto

import (
	"estoque/internal/domain/period"
)

// CreatePeriodRequest for POST /periods.
type CreatePeriodRequest struct {
	Year  int    `json:"year" binding:"required,min=1900,max=9999"`
	Month int    `json:"month" binding:"required"`
	Label string `json:"label"`
}

// RegisterBatchRequest for POST /batches.
type RegisterBatchRequest struct {
	PeriodID   *string           `json:"periodId"`
	SourceType period.SourceType `json:"sourceType" binding:"required"`
	Name       string            `json:"name" binding:"required"`
}

// SetBaseRequest for PUT /batches/:id/base.
type SetBaseRequest struct {
	IsBase *bool `json:"isBase" binding:"required"`
}

// LinkBatchRequest for PUT /batches/:id/period. A null periodId unlinks.
type LinkBatchRequest struct {
	PeriodID *string `json:"periodId"`
}
