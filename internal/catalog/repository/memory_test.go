package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locate(t *testing.T, repo *MemoryRepository, storeID int, lat, lon float64) int64 {
	t.Helper()
	id, err := repo.UpsertStoreLocation(context.Background(), &model.StoreLocation{
		StoreIdentity: model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: storeID},
		Latitude:      lat,
		Longitude:     lon,
	})
	require.NoError(t, err)
	return id
}

func TestMemoryUpsertStoreIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	identity := model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: 1}
	rev := 4

	first, err := repo.UpsertStore(ctx, identity, &rev)
	require.NoError(t, err)
	second, err := repo.UpsertStore(ctx, identity, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.BikoretNo)
	assert.Equal(t, 4, *second.BikoretNo)
	assert.Len(t, repo.stores, 1)
	assert.Equal(t, 4, *repo.stores[identity].BikoretNo, "missing revision keeps the previous one")
}

func TestMemoryConcurrentUpsertSameStore(t *testing.T) {
	repo := NewMemoryRepository()
	identity := model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: 1}

	var wg sync.WaitGroup
	ids := make([]int64, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if s, err := repo.UpsertStore(context.Background(), identity, nil); err == nil {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, repo.stores, 1)
}

func TestMemoryInsertItemDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	store, _ := repo.UpsertStore(ctx, model.StoreIdentity{ChainID: "729"}, nil)
	pk := store.ID

	_, err := repo.InsertItem(ctx, pk, sampleItem(), "a.xml")
	require.NoError(t, err)
	_, err = repo.InsertItem(ctx, pk, sampleItem(), "b.xml")
	assert.ErrorIs(t, err, catalog.ErrDuplicateItem)
}

func TestMemoryNearbyExcludesUnknownCoordinates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_, err := repo.UpsertStore(ctx, model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: 99}, nil)
	require.NoError(t, err)
	locate(t, repo, 1, 32.0853, 34.7818)

	for _, radius := range []float64{0.1, 10, 1000, 20040} {
		stores, err := repo.FindNearbyStores(ctx, 32.0853, 34.7818, radius)
		require.NoError(t, err)
		for _, s := range stores {
			assert.NotEqual(t, 99, s.StoreID, "radius %v", radius)
		}
	}
}

func TestMemoryNearbyOrderedWithinRadius(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	locate(t, repo, 1, 32.10, 34.80)   // ~2.4 km
	locate(t, repo, 2, 32.0853, 34.78) // ~0.2 km
	locate(t, repo, 3, 31.7683, 35.2137)
	locate(t, repo, 4, 32.15, 34.85) // ~9.7 km

	stores, err := repo.FindNearbyStores(ctx, 32.0853, 34.7818, 10)
	require.NoError(t, err)
	require.Len(t, stores, 3)

	assert.Equal(t, []int{2, 1, 4}, []int{stores[0].StoreID, stores[1].StoreID, stores[2].StoreID})
	for i, s := range stores {
		assert.LessOrEqual(t, s.DistanceKm, 10.0)
		if i > 0 {
			assert.LessOrEqual(t, stores[i-1].DistanceKm, s.DistanceKm)
		}
	}
}

func TestMemoryLatestItemsByName(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	store, _ := repo.UpsertStore(ctx, model.StoreIdentity{ChainID: "729"}, nil)
	pk := store.ID

	older := sampleItem()
	older.ItemName = "milk"
	older.ItemPrice = "3.00"
	older.PriceUpdateDate = "2025-01-01 00:00:00"
	newer := sampleItem()
	newer.ItemName = "MILK"
	newer.ItemPrice = "3.90"
	newer.PriceUpdateDate = "2025-02-01 00:00:00"
	other := sampleItem()
	other.ItemCode = "2"
	other.ItemName = "Bread"

	for _, it := range []*model.CatalogItem{newer, older, other} {
		_, err := repo.InsertItem(ctx, pk, it, "f.xml")
		require.NoError(t, err)
	}

	items, err := repo.FindLatestItemsByName(ctx, pk, []string{"milk"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3.9", items[0].Price.String())
	assert.Equal(t, "MILK", items[0].ItemName)

	items, err = repo.FindLatestItemsByName(ctx, pk+1, []string{"milk"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryUpsertStoreReturnsLocation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	city := "Haifa"
	_, err := repo.UpsertStoreLocation(ctx, &model.StoreLocation{
		StoreIdentity: model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: 5},
		Latitude:      32.79,
		Longitude:     34.99,
		City:          &city,
	})
	require.NoError(t, err)

	store, err := repo.UpsertStore(ctx, model.StoreIdentity{ChainID: "729", SubChainID: 1, StoreID: 5}, nil)
	require.NoError(t, err)
	require.NotNil(t, store.City)
	assert.Equal(t, "Haifa", *store.City)
}
