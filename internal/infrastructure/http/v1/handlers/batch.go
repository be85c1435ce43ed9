package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/http/v1/dto"
)

// BatchHandler handles HTTP requests for import batches.
type BatchHandler struct {
	*BaseHandler
	service *period.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *period.Service) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Register handles POST /batches
func (h *BatchHandler) Register(c *gin.Context) {
	var req dto.RegisterBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	periodID, ok := h.OptionalID(c, "periodId", req.PeriodID)
	if !ok {
		return
	}

	b, err := h.service.RegisterBatch(c.Request.Context(), period.RegisterBatchInput{
		PeriodID: periodID,
		Type:     req.SourceType,
		Name:     req.Name,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// SetBase handles PUT /batches/:id/base
func (h *BatchHandler) SetBase(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SetBaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.SetBase(c.Request.Context(), batchID, *req.IsBase)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Link handles PUT /batches/:id/period
func (h *BatchHandler) Link(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.LinkBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	periodID, ok := h.OptionalID(c, "periodId", req.PeriodID)
	if !ok {
		return
	}

	if err := h.service.Link(c.Request.Context(), batchID, periodID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
