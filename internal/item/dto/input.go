package dto

import (
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/shopspring/decimal"
)

// ToFilters validates the query and applies paging defaults.
func (q *SearchItemsQuery) ToFilters() (*ItemFilters, error) {
	f := &ItemFilters{
		SearchQuery:  strings.TrimSpace(q.Q),
		ChainID:      strings.TrimSpace(q.ChainID),
		City:         strings.TrimSpace(q.City),
		Manufacturer: strings.TrimSpace(q.Manufacturer),
		SortBy:       strings.ToLower(q.SortBy),
		SortOrder:    strings.ToLower(q.SortOrder),
		Page:         q.Page,
		PageSize:     q.PageSize,
	}

	var err error
	if f.MinPrice, err = parsePrice("min_price", q.MinPrice); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = parsePrice("max_price", q.MaxPrice); err != nil {
		return nil, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("%w: min_price is greater than max_price", catalog.ErrInvalidInput)
	}

	switch f.SortBy {
	case "", "price", "name", "date":
	default:
		return nil, fmt.Errorf("%w: unknown sort_by %q", catalog.ErrInvalidInput, q.SortBy)
	}

	if f.Page > MaxPage {
		return nil, fmt.Errorf("%w: page must not exceed %d", catalog.ErrInvalidInput, MaxPage)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f, nil
}

func parsePrice(name, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s %q", catalog.ErrInvalidInput, name, raw)
	}
	return &d, nil
}
