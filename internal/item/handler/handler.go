package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/item"
	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/pkg/httpserver"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ItemHandler struct {
	uc     item.UseCase
	logger logger.ZapLogger
}

func NewItemHandler(uc item.UseCase, log logger.ZapLogger) *ItemHandler {
	return &ItemHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/items/search", h.SearchItems)
}

func (h *ItemHandler) SearchItems(c *gin.Context) {
	var q dto.SearchItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	filters, err := q.ToFilters()
	if err != nil {
		httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	res, err := h.uc.SearchItems(c.Request.Context(), filters)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			httpserver.RespondError(c, http.StatusBadRequest, "invalid_input", err)
			return
		}
		h.logger.Error("failed to search items", zap.Error(err))
		httpserver.RespondInternal(c)
		return
	}
	httpserver.RespondOK(c, res)
}
