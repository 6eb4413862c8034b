package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/comparison"
	"github.com/fekuna/omnipos-price-service/internal/comparison/dto"
	"github.com/fekuna/omnipos-price-service/internal/pkg/httpserver"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ComparisonHandler struct {
	uc     comparison.UseCase
	logger logger.ZapLogger
}

func NewComparisonHandler(uc comparison.UseCase, log logger.ZapLogger) *ComparisonHandler {
	return &ComparisonHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ComparisonHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stores/nearby", h.NearbyStores)
	rg.POST("/compare-prices", h.ComparePrices)
}

func (h *ComparisonHandler) NearbyStores(c *gin.Context) {
	var q dto.NearbyStoresQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	stores, err := h.uc.NearbyStores(c.Request.Context(), q.ToInput())
	if err != nil {
		h.respondError(c, "failed to find nearby stores", err)
		return
	}
	httpserver.RespondOK(c, stores)
}

func (h *ComparisonHandler) ComparePrices(c *gin.Context) {
	var req dto.ComparePricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	result, err := h.uc.ComparePrices(c.Request.Context(), req.ToInput())
	if err != nil {
		h.respondError(c, "failed to compare prices", err)
		return
	}
	httpserver.RespondOK(c, result)
}

func (h *ComparisonHandler) respondError(c *gin.Context, msg string, err error) {
	if errors.Is(err, catalog.ErrInvalidInput) {
		httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	h.logger.Error(msg, zap.Error(err))
	httpserver.RespondInternal(c)
}
