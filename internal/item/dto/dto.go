package dto

import (
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*page_size well inside int range.
	MaxPage = 10000
)

type ItemFilters struct {
	SearchQuery  string           `json:"q"`
	ChainID      string           `json:"chain_id"`
	City         string           `json:"city"`
	Manufacturer string           `json:"manufacturer"`
	MinPrice     *decimal.Decimal `json:"min_price"`
	MaxPrice     *decimal.Decimal `json:"max_price"`
	SortBy       string           `json:"sort_by"`    // price, name, date
	SortOrder    string           `json:"sort_order"` // asc, desc
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
}

type SearchResult struct {
	Items    []model.ItemListing `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// SearchItemsQuery is the query string of GET /api/items/search.
type SearchItemsQuery struct {
	Q            string `form:"q"`
	ChainID      string `form:"chain_id"`
	City         string `form:"city"`
	Manufacturer string `form:"manufacturer"`
	MinPrice     string `form:"min_price"`
	MaxPrice     string `form:"max_price"`
	SortBy       string `form:"sort_by"`
	SortOrder    string `form:"sort_order"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}
