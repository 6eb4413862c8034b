package catalog

import (
	"context"

	"github.com/fekuna/omnipos-price-service/internal/model"
)

// PriceDateLayout is the layout of PriceUpdateDate in catalog files.
const PriceDateLayout = "2006-01-02 15:04:05"

type Repository interface {
	// EnsureSchema creates the tables and indexes if they are missing.
	EnsureSchema(ctx context.Context) error

	// UpsertStore inserts the store or updates its revision, returning the stored row.
	UpsertStore(ctx context.Context, identity model.StoreIdentity, bikoretNo *int) (*model.Store, error)
	// UpsertStoreLocation sets coordinates and address, creating the store when absent.
	UpsertStoreLocation(ctx context.Context, loc *model.StoreLocation) (int64, error)

	// InsertItem returns ErrDuplicateItem or ErrInvalidItem for the expected per-item failures.
	InsertItem(ctx context.Context, storePK int64, item *model.CatalogItem, source string) (*model.Item, error)

	FindNearbyStores(ctx context.Context, lat, lon, radiusKm float64) ([]model.NearbyStore, error)
	// FindLatestItemsByName matches lowered names exactly and returns the newest row per name.
	FindLatestItemsByName(ctx context.Context, storePK int64, lowerNames []string) ([]model.ItemPrice, error)
}
