package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/comparison"
	"github.com/fekuna/omnipos-price-service/internal/comparison/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-price-service/internal/pkg/geo"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRadiusKm       = 10.0
	DefaultMaxConcurrency = 8
)

type Options struct {
	DefaultRadiusKm float64
	MaxConcurrency  int
	CacheTTL        time.Duration
}

type comparisonUseCase struct {
	repo   catalog.Repository
	cache  cache.Cache
	opts   Options
	logger logger.ZapLogger
}

// NewComparisonUseCase builds the engine. c may be nil to disable caching.
func NewComparisonUseCase(repo catalog.Repository, c cache.Cache, opts Options, log logger.ZapLogger) comparison.UseCase {
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = DefaultRadiusKm
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &comparisonUseCase{
		repo:   repo,
		cache:  c,
		opts:   opts,
		logger: log,
	}
}

func (uc *comparisonUseCase) NearbyStores(ctx context.Context, input *dto.Location) ([]model.NearbyStore, error) {
	radius, err := uc.validateLocation(input)
	if err != nil {
		return nil, err
	}
	return uc.resolveStores(ctx, input.Latitude, input.Longitude, radius)
}

func (uc *comparisonUseCase) ComparePrices(ctx context.Context, input *dto.ComparePricesInput) (*model.PriceComparison, error) {
	radius, err := uc.validateLocation(&input.Location)
	if err != nil {
		return nil, err
	}
	requested, lowered, err := normalizeList(input.GroceryList)
	if err != nil {
		return nil, err
	}

	stores, err := uc.resolveStores(ctx, input.Location.Latitude, input.Location.Longitude, radius)
	if err != nil {
		return nil, err
	}

	results := make([]model.StoreComparison, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.MaxConcurrency)
	for i := range stores {
		g.Go(func() error {
			items, err := uc.repo.FindLatestItemsByName(gctx, stores[i].ID, lowered)
			if err != nil {
				return err
			}
			results[i] = summarize(stores[i], items, requested)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to match grocery list", zap.Int("stores", len(stores)), zap.Error(err))
		return nil, err
	}

	rank(results)

	out := &model.PriceComparison{
		Stores:         results,
		RequestedItems: requested,
	}
	if len(results) > 0 {
		best := results[0]
		out.BestStore = &best
	}
	return out, nil
}

func summarize(store model.NearbyStore, items []model.ItemPrice, requested []string) model.StoreComparison {
	found := make(map[string]struct{}, len(items))
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
		found[strings.ToLower(it.ItemName)] = struct{}{}
	}

	missing := []string{}
	for _, name := range requested {
		if _, ok := found[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if items == nil {
		items = []model.ItemPrice{}
	}

	return model.StoreComparison{
		Store:        store,
		Items:        items,
		TotalPrice:   total,
		ItemsFound:   len(found),
		ItemsMissing: missing,
	}
}

// rank orders by basket total ascending, then by items found descending. Remaining ties
// keep the distance order the stores were resolved in.
func rank(results []model.StoreComparison) {
	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].TotalPrice.Cmp(results[j].TotalPrice); c != 0 {
			return c < 0
		}
		return results[i].ItemsFound > results[j].ItemsFound
	})
}

func (uc *comparisonUseCase) validateLocation(loc *dto.Location) (float64, error) {
	if loc == nil {
		return 0, fmt.Errorf("%w: location is required", catalog.ErrInvalidInput)
	}
	if !(geo.Point{Lat: loc.Latitude, Lon: loc.Longitude}).Valid() {
		return 0, fmt.Errorf("%w: coordinates (%v, %v) out of range", catalog.ErrInvalidInput, loc.Latitude, loc.Longitude)
	}
	if loc.RadiusKm == nil {
		return uc.opts.DefaultRadiusKm, nil
	}
	r := *loc.RadiusKm
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return 0, fmt.Errorf("%w: radius_km must be positive", catalog.ErrInvalidInput)
	}
	return r, nil
}

// normalizeList trims the requested names and returns them alongside the distinct
// lower-cased set used for matching.
func normalizeList(list []string) ([]string, []string, error) {
	if len(list) == 0 {
		return nil, nil, fmt.Errorf("%w: grocery list is empty", catalog.ErrInvalidInput)
	}
	requested := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	lowered := make([]string, 0, len(list))
	for i, name := range list {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: grocery list entry %d is blank", catalog.ErrInvalidInput, i)
		}
		requested = append(requested, name)
		l := strings.ToLower(name)
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			lowered = append(lowered, l)
		}
	}
	return requested, lowered, nil
}

func (uc *comparisonUseCase) resolveStores(ctx context.Context, lat, lon, radiusKm float64) ([]model.NearbyStore, error) {
	if uc.cache == nil {
		return uc.repo.FindNearbyStores(ctx, lat, lon, radiusKm)
	}

	key := nearbyCacheKey(lat, lon, radiusKm)
	if data, err := uc.cache.Get(ctx, key); err == nil {
		var stores []model.NearbyStore
		if err := json.Unmarshal(data, &stores); err == nil {
			return stores, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("Failed to read nearby stores from cache", zap.Error(err))
	}

	stores, err := uc.repo.FindNearbyStores(ctx, lat, lon, radiusKm)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(stores); err == nil {
		if err := uc.cache.Set(ctx, key, data, uc.opts.CacheTTL); err != nil {
			uc.logger.Warn("Failed to cache nearby stores", zap.Error(err))
		}
	}
	return stores, nil
}

func nearbyCacheKey(lat, lon, radiusKm float64) string {
	hash := md5.Sum([]byte(fmt.Sprintf("%.6f:%.6f:%.3f", lat, lon, radiusKm)))
	return fmt.Sprintf("stores:nearby:%x", hash)
}
