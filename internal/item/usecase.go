package item

import (
	"context"

	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
)

type UseCase interface {
	SearchItems(ctx context.Context, f *dto.ItemFilters) (*dto.SearchResult, error)
	// IndexItems makes freshly ingested rows searchable.
	IndexItems(ctx context.Context, store *model.Store, items []model.Item) error
}
