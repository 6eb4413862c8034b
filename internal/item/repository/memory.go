package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
)

// ListingSource is implemented by the in-memory catalog repository.
type ListingSource interface {
	SearchItems(ctx context.Context, match func(*model.ItemListing) bool) []model.ItemListing
}

type MemoryRepository struct {
	src ListingSource
}

func NewMemoryRepository(src ListingSource) *MemoryRepository {
	return &MemoryRepository{src: src}
}

func (r *MemoryRepository) Search(ctx context.Context, f *dto.ItemFilters) ([]model.ItemListing, int, error) {
	q := strings.ToLower(f.SearchQuery)
	manufacturer := strings.ToLower(f.Manufacturer)

	all := r.src.SearchItems(ctx, func(l *model.ItemListing) bool {
		if q != "" && !strings.Contains(strings.ToLower(l.ItemName), q) && l.ItemCode != f.SearchQuery &&
			(l.ManufacturerName == nil || !strings.Contains(strings.ToLower(*l.ManufacturerName), q)) {
			return false
		}
		if f.ChainID != "" && l.ChainID != f.ChainID {
			return false
		}
		if f.City != "" && (l.City == nil || !strings.EqualFold(*l.City, f.City)) {
			return false
		}
		if manufacturer != "" && (l.ManufacturerName == nil || !strings.Contains(strings.ToLower(*l.ManufacturerName), manufacturer)) {
			return false
		}
		if f.MinPrice != nil && l.ItemPrice.LessThan(*f.MinPrice) {
			return false
		}
		if f.MaxPrice != nil && l.ItemPrice.GreaterThan(*f.MaxPrice) {
			return false
		}
		return true
	})

	asc := f.SortOrder == "asc"
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		var c int
		switch f.SortBy {
		case "price":
			c = a.ItemPrice.Cmp(b.ItemPrice)
		case "name":
			c = strings.Compare(a.ItemName, b.ItemName)
		default:
			c = a.PriceUpdateDate.Compare(b.PriceUpdateDate)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})

	total := len(all)
	if f.PageSize <= 0 {
		return all, total, nil
	}
	start := (f.Page - 1) * f.PageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []model.ItemListing{}, total, nil
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
