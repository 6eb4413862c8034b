package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/geo"
)

type itemKey struct {
	storePK   int64
	itemCode  string
	priceDate time.Time
}

// MemoryRepository keeps the catalog in process memory with the same uniqueness
// rules as the Postgres schema. It backs local runs without a database and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	stores  map[model.StoreIdentity]*model.Store
	items   map[itemKey]*model.Item
	byStore map[int64][]*model.Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		stores:  make(map[model.StoreIdentity]*model.Store),
		items:   make(map[itemKey]*model.Item),
		byStore: make(map[int64][]*model.Item),
	}
}

func (r *MemoryRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) storeLocked(identity model.StoreIdentity) *model.Store {
	s, ok := r.stores[identity]
	if !ok {
		r.nextID++
		s = &model.Store{ID: r.nextID, StoreIdentity: identity, CreatedAt: time.Now().UTC()}
		r.stores[identity] = s
	}
	return s
}

func (r *MemoryRepository) UpsertStore(ctx context.Context, identity model.StoreIdentity, bikoretNo *int) (*model.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.storeLocked(identity)
	if bikoretNo != nil {
		v := *bikoretNo
		s.BikoretNo = &v
	}
	out := *s
	return &out, nil
}

func (r *MemoryRepository) UpsertStoreLocation(ctx context.Context, loc *model.StoreLocation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.storeLocked(loc.StoreIdentity)
	lat, lon := loc.Latitude, loc.Longitude
	s.Latitude = &lat
	s.Longitude = &lon
	if loc.Address != nil {
		s.Address = loc.Address
	}
	if loc.City != nil {
		s.City = loc.City
	}
	return s.ID, nil
}

func (r *MemoryRepository) InsertItem(ctx context.Context, storePK int64, ci *model.CatalogItem, source string) (*model.Item, error) {
	item, err := catalog.BuildItem(storePK, ci, source, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := itemKey{storePK: storePK, itemCode: item.ItemCode, priceDate: item.PriceUpdateDate}
	if _, exists := r.items[key]; exists {
		return nil, fmt.Errorf("%w: store %d item %s", catalog.ErrDuplicateItem, storePK, item.ItemCode)
	}
	r.items[key] = item
	r.byStore[storePK] = append(r.byStore[storePK], item)
	return item, nil
}

func (r *MemoryRepository) FindNearbyStores(ctx context.Context, lat, lon, radiusKm float64) ([]model.NearbyStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	origin := geo.Point{Lat: lat, Lon: lon}
	out := []model.NearbyStore{}
	for _, s := range r.stores {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		d := geo.HaversineKm(origin, geo.Point{Lat: *s.Latitude, Lon: *s.Longitude})
		if d <= radiusKm {
			out = append(out, model.NearbyStore{Store: *s, DistanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) FindLatestItemsByName(ctx context.Context, storePK int64, lowerNames []string) ([]model.ItemPrice, error) {
	wanted := make(map[string]struct{}, len(lowerNames))
	for _, n := range lowerNames {
		wanted[n] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]*model.Item)
	for _, it := range r.byStore[storePK] {
		name := strings.ToLower(it.ItemName)
		if _, ok := wanted[name]; !ok {
			continue
		}
		cur, ok := latest[name]
		if !ok || it.PriceUpdateDate.After(cur.PriceUpdateDate) ||
			(it.PriceUpdateDate.Equal(cur.PriceUpdateDate) && it.ProcessedAt.After(cur.ProcessedAt)) {
			latest[name] = it
		}
	}

	names := make([]string, 0, len(latest))
	for n := range latest {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]model.ItemPrice, 0, len(names))
	for _, n := range names {
		it := latest[n]
		out = append(out, model.ItemPrice{
			ItemCode:         it.ItemCode,
			ItemName:         it.ItemName,
			Price:            it.ItemPrice,
			UnitOfMeasure:    it.UnitOfMeasure,
			ManufacturerName: it.ManufacturerName,
			PriceUpdateDate:  it.PriceUpdateDate,
		})
	}
	return out, nil
}

// SearchItems filters stored items for the item search fallback in memory mode.
func (r *MemoryRepository) SearchItems(ctx context.Context, match func(*model.ItemListing) bool) []model.ItemListing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byPK := make(map[int64]*model.Store, len(r.stores))
	for _, s := range r.stores {
		byPK[s.ID] = s
	}

	var out []model.ItemListing
	for _, it := range r.items {
		s := byPK[it.StorePK]
		if s == nil {
			continue
		}
		l := model.ItemListing{
			ID:               it.ID,
			ItemCode:         it.ItemCode,
			ItemName:         it.ItemName,
			ManufacturerName: it.ManufacturerName,
			UnitOfMeasure:    it.UnitOfMeasure,
			ItemPrice:        it.ItemPrice,
			PriceUpdateDate:  it.PriceUpdateDate,
			StorePK:          s.ID,
			ChainID:          s.ChainID,
			SubChainID:       s.SubChainID,
			StoreID:          s.StoreID,
			City:             s.City,
		}
		if match(&l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PriceUpdateDate.Equal(out[j].PriceUpdateDate) {
			return out[i].PriceUpdateDate.After(out[j].PriceUpdateDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
