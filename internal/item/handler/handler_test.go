package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	last *dto.ItemFilters
	err  error
}

func (f *fakeUseCase) SearchItems(ctx context.Context, filters *dto.ItemFilters) (*dto.SearchResult, error) {
	f.last = filters
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SearchResult{Items: []model.ItemListing{{ID: "1", ItemName: "Milk"}}, Total: 1, Page: filters.Page, PageSize: filters.PageSize}, nil
}

func (f *fakeUseCase) IndexItems(ctx context.Context, store *model.Store, items []model.Item) error {
	return nil
}

func serve(uc *fakeUseCase, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewItemHandler(uc, logger.NewNop()).RegisterRoutes(r.Group("/api"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestSearchItems(t *testing.T) {
	uc := &fakeUseCase{}
	w := serve(uc, "/api/items/search?q=milk&chain_id=729&min_price=2&page=2")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "milk", uc.last.SearchQuery)
	assert.Equal(t, "729", uc.last.ChainID)
	assert.Equal(t, "2", uc.last.MinPrice.String())
	assert.Equal(t, 2, uc.last.Page)
	assert.Equal(t, dto.DefaultPageSize, uc.last.PageSize)

	var res dto.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
}

func TestSearchItemsBadPrice(t *testing.T) {
	uc := &fakeUseCase{}
	w := serve(uc, "/api/items/search?min_price=cheap")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.last)
}

func TestSearchItemsFailureIsOpaque(t *testing.T) {
	w := serve(&fakeUseCase{err: errors.New("pq: relation items does not exist")}, "/api/items/search?q=milk")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestSearchItemsPageOutOfRange(t *testing.T) {
	uc := &fakeUseCase{}
	w := serve(uc, "/api/items/search?q=milk&page=4611686018427387904")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.last)
}
