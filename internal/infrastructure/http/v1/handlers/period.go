package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/domain/period"
	"estoque/internal/infrastructure/http/v1/dto"
)

// PeriodHandler handles HTTP requests for periods and their resolution.
type PeriodHandler struct {
	*BaseHandler
	service  *period.Service
	resolver *period.Resolver
}

// NewPeriodHandler creates a new period handler.
func NewPeriodHandler(base *BaseHandler, service *period.Service, resolver *period.Resolver) *PeriodHandler {
	return &PeriodHandler{
		BaseHandler: base,
		service:     service,
		resolver:    resolver,
	}
}

// List handles GET /periods
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(periods))
}

// Create handles POST /periods
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.CreatePeriod(c.Request.Context(), req.Year, req.Month, req.Label)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Active handles GET /periods/active
func (h *PeriodHandler) Active(c *gin.Context) {
	p, err := h.service.Active(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Activate handles POST /periods/:id/activate
func (h *PeriodHandler) Activate(c *gin.Context) {
	periodID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.service.Activate(ctx, periodID); err != nil {
		h.Error(c, err)
		return
	}
	p, err := h.service.Get(ctx, periodID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Batches handles GET /periods/:id/batches[?sourceType=&baseOnly=true]
func (h *PeriodHandler) Batches(c *gin.Context) {
	periodID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	batches, err := h.service.ListBatches(c.Request.Context(), period.BatchFilter{
		PeriodID: &periodID,
		Type:     period.SourceType(c.Query("sourceType")),
		BaseOnly: c.Query("baseOnly") == "true",
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(batches))
}

// Resolution handles GET /periods/:id/resolution[?stockBatchId=&ledgerBatchId=]
func (h *PeriodHandler) Resolution(c *gin.Context) {
	periodID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	stockID, ok := h.QueryID(c, "stockBatchId")
	if !ok {
		return
	}
	ledgerID, ok := h.QueryID(c, "ledgerBatchId")
	if !ok {
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), periodID, period.Hints{
		StockBatchID:  stockID,
		LedgerBatchID: ledgerID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
