package item

import (
	"context"

	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
)

type Repository interface {
	Search(ctx context.Context, f *dto.ItemFilters) ([]model.ItemListing, int, error)
}
