package model

import "time"

// StoreIdentity is the natural key of a physical store.
type StoreIdentity struct {
	ChainID    string `db:"chain_id" json:"chain_id"`
	SubChainID int    `db:"sub_chain_id" json:"sub_chain_id"`
	StoreID    int    `db:"store_id" json:"store_id"`
}

type Store struct {
	ID int64 `db:"id" json:"id"`
	StoreIdentity
	BikoretNo *int      `db:"bikoret_no" json:"bikoret_no,omitempty"`
	Latitude  *float64  `db:"latitude" json:"latitude"`
	Longitude *float64  `db:"longitude" json:"longitude"`
	Address   *string   `db:"address" json:"address"`
	City      *string   `db:"city" json:"city"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NearbyStore is a store with known coordinates and its distance from a query point.
type NearbyStore struct {
	Store
	DistanceKm float64 `db:"distance_km" json:"distance_km"`
}

// StoreLocation carries the geographic attributes of a store as delivered by a locations file.
type StoreLocation struct {
	StoreIdentity
	Latitude  float64
	Longitude float64
	Address   *string
	City      *string
}
