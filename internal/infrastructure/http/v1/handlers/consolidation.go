package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estoque/internal/core/apperror"
	"estoque/internal/domain/consolidation"
	"estoque/internal/infrastructure/export/xlsx"
)

// ConsolidationHandler serves consolidated positions as JSON or XLSX.
type ConsolidationHandler struct {
	*BaseHandler
	engine *consolidation.Engine
}

// NewConsolidationHandler creates a new consolidation handler.
func NewConsolidationHandler(base *BaseHandler, engine *consolidation.Engine) *ConsolidationHandler {
	return &ConsolidationHandler{
		BaseHandler: base,
		engine:      engine,
	}
}

// Get handles GET /periods/:id/consolidation[?ledgerBatchId=&stockBatchId=&format=xlsx]
func (h *ConsolidationHandler) Get(c *gin.Context) {
	periodID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ledgerID, ok := h.QueryID(c, "ledgerBatchId")
	if !ok {
		return
	}
	stockID, ok := h.QueryID(c, "stockBatchId")
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "xlsx" {
		h.Error(c, apperror.NewValidation("format must be json or xlsx").WithDetail("format", format))
		return
	}

	res, err := h.engine.Consolidate(c.Request.Context(), periodID, consolidation.Options{
		LedgerBatchID: ledgerID,
		StockBatchID:  stockID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	if format == "json" {
		h.OK(c, res)
		return
	}

	// Rendered to a buffer so a failure still produces a JSON error.
	var buf bytes.Buffer
	if err := xlsx.WriteConsolidation(&buf, res); err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+xlsx.Filename(res))
	c.Data(http.StatusOK, xlsx.ContentType, buf.Bytes())
}
