package dto

import (
	"github.com/shopspring/decimal"

	"estoque/internal/core/diag"
	"estoque/internal/domain/adjustment"
)

// CreateTransferRequest for POST /adjustments. Codes are raw and normalized
// by the service.
type CreateTransferRequest struct {
	PeriodID      string          `json:"periodId" binding:"required"`
	LedgerBatchID *string         `json:"ledgerBatchId"`
	CodNegativo   string          `json:"codNegativo" binding:"required"`
	CodPositivo   string          `json:"codPositivo" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	Note          string          `json:"note"`
}

// TransferResponse carries the stored transfer and policy warnings.
type TransferResponse struct {
	adjustment.Transfer
	Warnings []diag.Issue `json:"warnings,omitempty"`
}

// FromCreateResult creates TransferResponse from a service result.
func FromCreateResult(r *adjustment.CreateResult) TransferResponse {
	return TransferResponse{Transfer: *r.Transfer, Warnings: r.Warnings}
}

// TransferListResponse lists transfers of one scope.
type TransferListResponse struct {
	PeriodID      string                `json:"periodId"`
	LedgerBatchID *string               `json:"ledgerBatchId,omitempty"`
	Items         []adjustment.Transfer `json:"items"`
	Count         int                   `json:"count"`
}
