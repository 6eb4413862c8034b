package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/geo"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return mapError("ensure schema", err)
		}
	}
	return nil
}

func (r *PGRepository) UpsertStore(ctx context.Context, identity model.StoreIdentity, bikoretNo *int) (*model.Store, error) {
	query := `
        INSERT INTO stores (chain_id, sub_chain_id, store_id, bikoret_no)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (chain_id, sub_chain_id, store_id)
        DO UPDATE SET bikoret_no = COALESCE(EXCLUDED.bikoret_no, stores.bikoret_no)
        RETURNING id, chain_id, sub_chain_id, store_id, bikoret_no,
            latitude::float8 AS latitude, longitude::float8 AS longitude,
            address, city, created_at
    `
	var store model.Store
	err := r.DB.GetContext(ctx, &store, query, identity.ChainID, identity.SubChainID, identity.StoreID, bikoretNo)
	if err != nil {
		return nil, mapError("upsert store", err)
	}
	return &store, nil
}

func (r *PGRepository) UpsertStoreLocation(ctx context.Context, loc *model.StoreLocation) (int64, error) {
	query := `
        INSERT INTO stores (chain_id, sub_chain_id, store_id, latitude, longitude, address, city)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (chain_id, sub_chain_id, store_id)
        DO UPDATE SET
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            address = COALESCE(EXCLUDED.address, stores.address),
            city = COALESCE(EXCLUDED.city, stores.city)
        RETURNING id
    `
	var id int64
	err := r.DB.GetContext(ctx, &id, query,
		loc.ChainID, loc.SubChainID, loc.StoreID,
		loc.Latitude, loc.Longitude, loc.Address, loc.City,
	)
	if err != nil {
		return 0, mapError("upsert store location", err)
	}
	return id, nil
}

func (r *PGRepository) InsertItem(ctx context.Context, storePK int64, ci *model.CatalogItem, source string) (*model.Item, error) {
	item, err := catalog.BuildItem(storePK, ci, source, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// A conflicting row means this snapshot was already ingested; nothing is written.
	query := `
        INSERT INTO items (
            id, store_pk, item_code, item_type, item_name, manufacturer_name,
            manufacture_country, manufacturer_item_description, unit_qty,
            quantity, unit_of_measure, is_weighted, qty_in_package,
            item_price, unit_of_measure_price, allow_discount, item_status,
            price_update_date, processed_at, file_source
        )
        VALUES (
            :id, :store_pk, :item_code, :item_type, :item_name, :manufacturer_name,
            :manufacture_country, :manufacturer_item_description, :unit_qty,
            :quantity, :unit_of_measure, :is_weighted, :qty_in_package,
            :item_price, :unit_of_measure_price, :allow_discount, :item_status,
            :price_update_date, :processed_at, :file_source
        )
        ON CONFLICT (store_pk, item_code, price_update_date) DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, item)
	if err != nil {
		return nil, mapError("insert item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, mapError("insert item", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: store %d item %s at %s", catalog.ErrDuplicateItem,
			storePK, item.ItemCode, item.PriceUpdateDate.Format(catalog.PriceDateLayout))
	}
	return item, nil
}

func (r *PGRepository) FindNearbyStores(ctx context.Context, lat, lon, radiusKm float64) ([]model.NearbyStore, error) {
	box := geo.BoundingBox(geo.Point{Lat: lat, Lon: lon}, radiusKm)

	// The bounding box lets idx_stores_location prune rows before the exact distance check.
	query := `
        SELECT * FROM (
            SELECT
                id, chain_id, sub_chain_id, store_id, bikoret_no,
                latitude::float8 AS latitude, longitude::float8 AS longitude,
                address, city, created_at,
                2 * 6371 * asin(LEAST(1, sqrt(
                    power(sin(radians(latitude::float8 - $1::float8) / 2), 2) +
                    cos(radians($1::float8)) * cos(radians(latitude::float8)) *
                    power(sin(radians(longitude::float8 - $2::float8) / 2), 2)
                ))) AS distance_km
            FROM stores
            WHERE latitude IS NOT NULL
              AND longitude IS NOT NULL
              AND latitude BETWEEN $4 AND $5
              AND longitude BETWEEN $6 AND $7
        ) candidates
        WHERE distance_km <= $3
        ORDER BY distance_km, id
    `
	stores := []model.NearbyStore{}
	err := r.DB.SelectContext(ctx, &stores, query,
		lat, lon, radiusKm,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, mapError("find nearby stores", err)
	}
	return stores, nil
}

func (r *PGRepository) FindLatestItemsByName(ctx context.Context, storePK int64, lowerNames []string) ([]model.ItemPrice, error) {
	items := []model.ItemPrice{}
	if len(lowerNames) == 0 {
		return items, nil
	}

	query := `
        SELECT DISTINCT ON (LOWER(item_name))
            item_code, item_name, item_price, unit_of_measure, manufacturer_name, price_update_date
        FROM items
        WHERE store_pk = $1
          AND LOWER(item_name) = ANY($2::text[])
        ORDER BY LOWER(item_name), price_update_date DESC, processed_at DESC
    `
	if err := r.DB.SelectContext(ctx, &items, query, storePK, pq.Array(lowerNames)); err != nil {
		return nil, mapError("find latest items by name", err)
	}
	return items, nil
}

// mapError classifies driver errors into the catalog taxonomy. Errors reported by the
// server keep their identity; anything that never reached the server is treated as
// the store being unavailable.
func mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "23505": // unique_violation
			return fmt.Errorf("%s: %w: %w", op, catalog.ErrDuplicateItem, err)
		case strings.HasPrefix(code, "22"): // data_exception
			return fmt.Errorf("%s: %w: %w", op, catalog.ErrInvalidItem, err)
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"), strings.HasPrefix(code, "57P"):
			return fmt.Errorf("%s: %w: %w", op, catalog.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, catalog.ErrStorageUnavailable, err)
}
