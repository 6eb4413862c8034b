package model

import "github.com/shopspring/decimal"

type StoreComparison struct {
	Store        NearbyStore     `json:"store"`
	Items        []ItemPrice     `json:"items"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ItemsFound   int             `json:"items_found"`
	ItemsMissing []string        `json:"items_missing"`
}

type PriceComparison struct {
	Stores         []StoreComparison `json:"stores"`
	BestStore      *StoreComparison  `json:"best_store"`
	RequestedItems []string          `json:"requested_items"`
}
