package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/item"
	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-price-service/internal/pkg/search"
	"go.uber.org/zap"
)

const (
	DefaultIndex    = "items"
	searchKeyPrefix = "items:search:"
)

const itemsMapping = `{
    "settings": {
        "analysis": {
            "normalizer": {
                "lowercase": { "type": "custom", "filter": ["lowercase"] }
            }
        }
    },
    "mappings": {
        "properties": {
            "item_code": { "type": "keyword" },
            "item_name": {
                "type": "text",
                "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase" } }
            },
            "manufacturer_name": { "type": "text" },
            "unit_of_measure": { "type": "keyword" },
            "item_price": { "type": "scaled_float", "scaling_factor": 10000 },
            "price_update_date": { "type": "date" },
            "store_pk": { "type": "long" },
            "chain_id": { "type": "keyword" },
            "sub_chain_id": { "type": "integer" },
            "store_id": { "type": "integer" },
            "city": { "type": "keyword", "normalizer": "lowercase" }
        }
    }
}`

// Searcher is the part of the search client the item use case needs.
type Searcher interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	BulkIndex(ctx context.Context, index string, docs []search.Document) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
}

type itemUseCase struct {
	repo     item.Repository
	cache    cache.Cache
	es       Searcher
	index    string
	cacheTTL time.Duration
	logger   logger.ZapLogger

	indexReady atomic.Bool
}

// NewItemUseCase wires item search. c and es may be nil.
func NewItemUseCase(repo item.Repository, c cache.Cache, es Searcher, index string, cacheTTL time.Duration, log logger.ZapLogger) item.UseCase {
	if index == "" {
		index = DefaultIndex
	}
	return &itemUseCase{
		repo:     repo,
		cache:    c,
		es:       es,
		index:    index,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

type cachedResult struct {
	Items []model.ItemListing
	Total int
}

func (uc *itemUseCase) SearchItems(ctx context.Context, f *dto.ItemFilters) (*dto.SearchResult, error) {
	cacheKey, keyErr := generateCacheKey(f)
	if keyErr == nil && uc.cache != nil {
		data, err := uc.cache.Get(ctx, cacheKey)
		if err == nil {
			var cached cachedResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return uc.result(f, cached.Items, cached.Total), nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			uc.logger.Warn("Failed to read item search cache", zap.Error(err))
		}
	}

	items, total, err := uc.find(ctx, f)
	if err != nil {
		return nil, err
	}

	if keyErr == nil && uc.cache != nil {
		if data, err := json.Marshal(cachedResult{Items: items, Total: total}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to cache item search", zap.Error(err))
			}
		}
	}
	return uc.result(f, items, total), nil
}

func (uc *itemUseCase) result(f *dto.ItemFilters, items []model.ItemListing, total int) *dto.SearchResult {
	if items == nil {
		items = []model.ItemListing{}
	}
	return &dto.SearchResult{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}
}

func (uc *itemUseCase) find(ctx context.Context, f *dto.ItemFilters) ([]model.ItemListing, int, error) {
	if f.SearchQuery != "" && uc.es != nil {
		res, err := uc.es.Search(ctx, uc.index, buildQuery(f))
		if err == nil {
			items := make([]model.ItemListing, 0, len(res.Hits.Hits))
			for _, hit := range res.Hits.Hits {
				var l model.ItemListing
				if err := json.Unmarshal(hit.Source, &l); err == nil {
					items = append(items, l)
				}
			}
			return items, res.Hits.Total.Value, nil
		}
		uc.logger.Error("Item search failed, falling back to database", zap.Error(err))
	}
	return uc.repo.Search(ctx, f)
}

func buildQuery(f *dto.ItemFilters) map[string]interface{} {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":     f.SearchQuery,
				"fields":    []string{"item_name^3", "manufacturer_name", "item_code"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
	}
	filter := []map[string]interface{}{}
	if f.ChainID != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"chain_id": f.ChainID}})
	}
	if f.City != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"city": strings.ToLower(f.City)}})
	}
	if f.Manufacturer != "" {
		must = append(must, map[string]interface{}{"match": map[string]interface{}{"manufacturer_name": f.Manufacturer}})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r := map[string]interface{}{}
		if f.MinPrice != nil {
			r["gte"] = f.MinPrice.InexactFloat64()
		}
		if f.MaxPrice != nil {
			r["lte"] = f.MaxPrice.InexactFloat64()
		}
		filter = append(filter, map[string]interface{}{"range": map[string]interface{}{"item_price": r}})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"from": (f.Page - 1) * f.PageSize,
	}
	if f.PageSize > 0 {
		q["size"] = f.PageSize
	}

	order := "desc"
	if f.SortOrder == "asc" {
		order = "asc"
	}
	switch f.SortBy {
	case "price":
		q["sort"] = []map[string]interface{}{{"item_price": order}}
	case "date":
		q["sort"] = []map[string]interface{}{{"price_update_date": order}}
	case "name":
		q["sort"] = []map[string]interface{}{{"item_name.keyword": order}}
	}
	return q
}

func generateCacheKey(f *dto.ItemFilters) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", searchKeyPrefix, md5.Sum(data)), nil
}

func (uc *itemUseCase) IndexItems(ctx context.Context, store *model.Store, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	if uc.cache != nil {
		if err := uc.cache.DeletePattern(ctx, searchKeyPrefix+"*"); err != nil {
			uc.logger.Warn("Failed to invalidate item search cache", zap.Error(err))
		}
	}
	if uc.es == nil {
		return nil
	}

	if !uc.indexReady.Load() {
		if err := uc.es.CreateIndex(ctx, uc.index, itemsMapping); err != nil {
			return fmt.Errorf("create index %s: %w", uc.index, err)
		}
		uc.indexReady.Store(true)
	}

	docs := make([]search.Document, 0, len(items))
	for i := range items {
		it := &items[i]
		docs = append(docs, search.Document{
			ID: it.ID,
			Body: model.ItemListing{
				ID:               it.ID,
				ItemCode:         it.ItemCode,
				ItemName:         it.ItemName,
				ManufacturerName: it.ManufacturerName,
				UnitOfMeasure:    it.UnitOfMeasure,
				ItemPrice:        it.ItemPrice,
				PriceUpdateDate:  it.PriceUpdateDate,
				StorePK:          it.StorePK,
				ChainID:          store.ChainID,
				SubChainID:       store.SubChainID,
				StoreID:          store.StoreID,
				City:             store.City,
			},
		})
	}
	if err := uc.es.BulkIndex(ctx, uc.index, docs); err != nil {
		return fmt.Errorf("bulk index %d items: %w", len(docs), err)
	}
	uc.logger.Debug("Indexed items",
		zap.String("chain_id", store.ChainID),
		zap.Int("store_id", store.StoreID),
		zap.Int("count", len(docs)),
	)
	return nil
}
