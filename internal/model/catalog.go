package model

import "time"

// Catalog is the decoded content of one catalog file. Values stay textual where the
// file carries text; conversion and validation happen when items are stored.
type Catalog struct {
	Store     StoreIdentity
	BikoretNo *int
	Items     []CatalogItem
}

// CatalogItem mirrors one <Item> element. Nil pointers mean the element was absent or empty.
type CatalogItem struct {
	PriceUpdateDate             string
	ItemCode                    string
	ItemType                    int
	ItemName                    string
	ManufacturerName            *string
	ManufactureCountry          *string
	ManufacturerItemDescription *string
	UnitQty                     *string
	Quantity                    *string
	UnitOfMeasure               *string
	IsWeighted                  *int
	QtyInPackage                *string
	ItemPrice                   string
	UnitOfMeasurePrice          *string
	AllowDiscount               *int
	ItemStatus                  *int
}

// IngestionSummary is the per-file outcome of one ingestion run.
type IngestionSummary struct {
	File       string        `json:"file"`
	Store      StoreIdentity `json:"store"`
	Total      int           `json:"total"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// ScanReport aggregates one pass over the watch directory.
type ScanReport struct {
	Files     int `json:"files"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
