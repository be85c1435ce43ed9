package handlers

import (
	"github.com/gin-gonic/gin"

	"estoque/internal/domain/catalogs/product"
	"estoque/internal/infrastructure/http/v1/dto"
)

// ConversionHandler handles the unit conversion catalog and the secondary
// product catalog.
type ConversionHandler struct {
	*BaseHandler
	service *product.Service
}

// NewConversionHandler creates a new conversion handler.
func NewConversionHandler(base *BaseHandler, service *product.Service) *ConversionHandler {
	return &ConversionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /conversions[?code=]
func (h *ConversionHandler) List(c *gin.Context) {
	conversions, err := h.service.ListConversions(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(conversions))
}

// Create handles POST /conversions
func (h *ConversionHandler) Create(c *gin.Context) {
	var req dto.CreateConversionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	conv, err := h.service.CreateConversion(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, conv)
}

// Delete handles DELETE /conversions/:id
func (h *ConversionHandler) Delete(c *gin.Context) {
	conversionID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteConversion(c.Request.Context(), conversionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UpsertProduct handles PUT /products/:code
func (h *ConversionHandler) UpsertProduct(c *gin.Context) {
	var req dto.UpsertProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpsertCatalogProduct(c.Request.Context(), c.Param("code"), req.Description, req.Unit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}
