package comparison

import (
	"context"

	"github.com/fekuna/omnipos-price-service/internal/comparison/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
)

type UseCase interface {
	NearbyStores(ctx context.Context, input *dto.Location) ([]model.NearbyStore, error)
	ComparePrices(ctx context.Context, input *dto.ComparePricesInput) (*model.PriceComparison, error)
}
