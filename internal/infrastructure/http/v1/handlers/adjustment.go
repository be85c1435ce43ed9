package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/adjustment"
	"estoque/internal/domain/audit"
	"estoque/internal/infrastructure/http/v1/dto"
)

// AdjustmentHandler handles HTTP requests for balance transfers.
type AdjustmentHandler struct {
	*BaseHandler
	service *adjustment.Service
	audit   *audit.Recorder
}

// NewAdjustmentHandler creates a new adjustment handler. recorder may be nil,
// in which case the history route reports NotFound.
func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service, recorder *audit.Recorder) *AdjustmentHandler {
	return &AdjustmentHandler{
		BaseHandler: base,
		service:     service,
		audit:       recorder,
	}
}

// List handles GET /adjustments?periodId=&ledgerBatchId=
func (h *AdjustmentHandler) List(c *gin.Context) {
	periodID, ok := h.QueryID(c, "periodId")
	if !ok {
		return
	}
	if periodID == nil {
		h.Error(c, apperror.NewValidation("periodId is required"))
		return
	}
	ledgerID, ok := h.QueryID(c, "ledgerBatchId")
	if !ok {
		return
	}

	transfers, err := h.service.List(c.Request.Context(), adjustment.Scope{
		PeriodID:      *periodID,
		LedgerBatchID: ledgerID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if transfers == nil {
		transfers = []adjustment.Transfer{}
	}

	resp := dto.TransferListResponse{
		PeriodID: periodID.String(),
		Items:    transfers,
		Count:    len(transfers),
	}
	if ledgerID != nil {
		s := ledgerID.String()
		resp.LedgerBatchID = &s
	}
	h.OK(c, resp)
}

// Create handles POST /adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	periodID, err := id.Parse(req.PeriodID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid periodId format").WithDetail("periodId", req.PeriodID))
		return
	}
	ledgerID, ok := h.OptionalID(c, "ledgerBatchId", req.LedgerBatchID)
	if !ok {
		return
	}

	result, err := h.service.Create(c.Request.Context(), adjustment.CreateInput{
		PeriodID:      periodID,
		LedgerBatchID: ledgerID,
		NegativeCode:  req.CodNegativo,
		PositiveCode:  req.CodPositivo,
		Quantity:      req.Quantity,
		UnitCost:      req.UnitCost,
		Note:          req.Note,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCreateResult(result))
}

// Delete handles DELETE /adjustments/:id
func (h *AdjustmentHandler) Delete(c *gin.Context) {
	transferID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), transferID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /adjustments/:id/history[?limit=]
func (h *AdjustmentHandler) History(c *gin.Context) {
	transferID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if h.audit == nil {
		h.Error(c, apperror.NewNotFound("audit trail", transferID))
		return
	}

	entries, err := h.audit.History(c.Request.Context(), transferID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}
