package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one priced offering at one store, effective from PriceUpdateDate. Rows are never updated.
type Item struct {
	ID                          string              `db:"id" json:"id"`
	StorePK                     int64               `db:"store_pk" json:"store_pk"`
	ItemCode                    string              `db:"item_code" json:"item_code"`
	ItemType                    int                 `db:"item_type" json:"item_type"`
	ItemName                    string              `db:"item_name" json:"item_name"`
	ManufacturerName            *string             `db:"manufacturer_name" json:"manufacturer_name"`
	ManufactureCountry          *string             `db:"manufacture_country" json:"manufacture_country"`
	ManufacturerItemDescription *string             `db:"manufacturer_item_description" json:"manufacturer_item_description"`
	UnitQty                     *string             `db:"unit_qty" json:"unit_qty"`
	Quantity                    *string             `db:"quantity" json:"quantity"`
	UnitOfMeasure               *string             `db:"unit_of_measure" json:"unit_of_measure"`
	IsWeighted                  *int                `db:"is_weighted" json:"is_weighted"`
	QtyInPackage                *string             `db:"qty_in_package" json:"qty_in_package"`
	ItemPrice                   decimal.Decimal     `db:"item_price" json:"item_price"`
	UnitOfMeasurePrice          decimal.NullDecimal `db:"unit_of_measure_price" json:"unit_of_measure_price"`
	AllowDiscount               *int                `db:"allow_discount" json:"allow_discount"`
	ItemStatus                  *int                `db:"item_status" json:"item_status"`
	PriceUpdateDate             time.Time           `db:"price_update_date" json:"price_update_date"`
	FileSource                  string              `db:"file_source" json:"file_source"`
	ProcessedAt                 time.Time           `db:"processed_at" json:"processed_at"`
}

// ItemPrice is the latest price of a matched item at one store.
type ItemPrice struct {
	ItemCode         string          `db:"item_code" json:"item_code"`
	ItemName         string          `db:"item_name" json:"item_name"`
	Price            decimal.Decimal `db:"item_price" json:"price"`
	UnitOfMeasure    *string         `db:"unit_of_measure" json:"unit_of_measure"`
	ManufacturerName *string         `db:"manufacturer_name" json:"manufacturer_name"`
	PriceUpdateDate  time.Time       `db:"price_update_date" json:"price_update_date"`
}

// ItemListing is an item row joined with the store it is sold at, as returned by item search.
type ItemListing struct {
	ID               string          `db:"id" json:"id"`
	ItemCode         string          `db:"item_code" json:"item_code"`
	ItemName         string          `db:"item_name" json:"item_name"`
	ManufacturerName *string         `db:"manufacturer_name" json:"manufacturer_name"`
	UnitOfMeasure    *string         `db:"unit_of_measure" json:"unit_of_measure"`
	ItemPrice        decimal.Decimal `db:"item_price" json:"item_price"`
	PriceUpdateDate  time.Time       `db:"price_update_date" json:"price_update_date"`
	StorePK          int64           `db:"store_pk" json:"store_pk"`
	ChainID          string          `db:"chain_id" json:"chain_id"`
	SubChainID       int             `db:"sub_chain_id" json:"sub_chain_id"`
	StoreID          int             `db:"store_id" json:"store_id"`
	City             *string         `db:"city" json:"city"`
}
