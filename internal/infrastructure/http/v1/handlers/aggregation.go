package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/domain/aggregation"
	"estoque/internal/infrastructure/http/v1/dto"
)

// AggregationHandler exposes the raw entry and exit aggregations, mostly for
// reviewing a batch before marking it base.
type AggregationHandler struct {
	*BaseHandler
	entries *aggregation.Entries
	exits   *aggregation.Exits
}

// NewAggregationHandler creates a new aggregation handler.
func NewAggregationHandler(base *BaseHandler, entries *aggregation.Entries, exits *aggregation.Exits) *AggregationHandler {
	return &AggregationHandler{
		BaseHandler: base,
		entries:     entries,
		exits:       exits,
	}
}

// Entries handles GET /batches/:id/entries
func (h *AggregationHandler) Entries(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	agg, err := h.entries.Aggregate(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAggregate(agg))
}

// Exits handles GET /exits?batchId=..&batchId=..
func (h *AggregationHandler) Exits(c *gin.Context) {
	raw := c.QueryArray("batchId")
	if len(raw) == 0 {
		h.Error(c, apperror.NewValidation("at least one batchId is required"))
		return
	}

	batchIDs := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		v, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId format").WithDetail("batchId", s))
			return
		}
		batchIDs = append(batchIDs, v)
	}

	agg, err := h.exits.Aggregate(c.Request.Context(), batchIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAggregate(agg))
}
