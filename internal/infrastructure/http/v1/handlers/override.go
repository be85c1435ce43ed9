package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/domain/records"
	"estoque/internal/infrastructure/http/v1/dto"
)

// OverrideHandler sets and clears entry line quantity overrides.
type OverrideHandler struct {
	*BaseHandler
	service *records.OverrideService
}

// NewOverrideHandler creates a new override handler.
func NewOverrideHandler(base *BaseHandler, service *records.OverrideService) *OverrideHandler {
	return &OverrideHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Set handles PUT /batches/:id/entry-lines/:lineId/override
func (h *OverrideHandler) Set(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SetOverrideRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.service.Set(c.Request.Context(), batchID, c.Param("lineId"), req.AdjustedQuantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// Clear handles DELETE /batches/:id/entry-lines/:lineId/override
func (h *OverrideHandler) Clear(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Clear(c.Request.Context(), batchID, c.Param("lineId")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
