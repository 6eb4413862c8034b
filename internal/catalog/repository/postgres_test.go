package repository

import (
	"context"
	"errors"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func sampleItem() *model.CatalogItem {
	return &model.CatalogItem{
		PriceUpdateDate: "2025-03-01 06:00:00",
		ItemCode:        "7290000000001",
		ItemType:        1,
		ItemName:        "Milk",
		ItemPrice:       "3.50",
	}
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStoreReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	bikoret := 7
	identity := model.StoreIdentity{ChainID: "7290027600007", SubChainID: 1, StoreID: 12}

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO stores (chain_id, sub_chain_id, store_id, bikoret_no)")).
		WithArgs("7290027600007", 1, 12, 7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "chain_id", "sub_chain_id", "store_id", "bikoret_no",
			"latitude", "longitude", "address", "city", "created_at",
		}).AddRow(int64(5), "7290027600007", 1, 12, 7, 32.08, 34.78, nil, "Tel Aviv", created))

	store, err := repo.UpsertStore(context.Background(), identity, &bikoret)
	require.NoError(t, err)
	assert.Equal(t, int64(5), store.ID)
	assert.Equal(t, identity, store.StoreIdentity)
	require.NotNil(t, store.City)
	assert.Equal(t, "Tel Aviv", *store.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStoreConnectionFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO stores").
		WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	_, err := repo.UpsertStore(context.Background(), model.StoreIdentity{ChainID: "1"}, nil)
	assert.ErrorIs(t, err, catalog.ErrStorageUnavailable)
}

func TestUpsertStoreLocation(t *testing.T) {
	repo, mock := newMockRepo(t)
	city := "Haifa"
	loc := &model.StoreLocation{
		StoreIdentity: model.StoreIdentity{ChainID: "1", SubChainID: 2, StoreID: 3},
		Latitude:      32.79,
		Longitude:     34.99,
		City:          &city,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO stores (chain_id, sub_chain_id, store_id, latitude, longitude, address, city)")).
		WithArgs("1", 2, 3, 32.79, 34.99, nil, "Haifa").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	id, err := repo.UpsertStoreLocation(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItem(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO items")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := repo.InsertItem(context.Background(), 5, sampleItem(), "PriceFull.xml")
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.StorePK)
	assert.Equal(t, "3.5", item.ItemPrice.String())
	assert.Equal(t, time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC), item.PriceUpdateDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemDuplicateWhenNothingInserted(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("ON CONFLICT \\(store_pk, item_code, price_update_date\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.InsertItem(context.Background(), 5, sampleItem(), "PriceFull.xml")
	assert.ErrorIs(t, err, catalog.ErrDuplicateItem)
}

func TestInsertItemUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO items").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.InsertItem(context.Background(), 5, sampleItem(), "PriceFull.xml")
	assert.ErrorIs(t, err, catalog.ErrDuplicateItem)
	assert.NotErrorIs(t, err, catalog.ErrStorageUnavailable)
}

func TestInsertItemInvalidPriceSkipsDatabase(t *testing.T) {
	repo, mock := newMockRepo(t)
	it := sampleItem()
	it.ItemPrice = "3,50"

	_, err := repo.InsertItem(context.Background(), 5, it, "PriceFull.xml")
	assert.ErrorIs(t, err, catalog.ErrInvalidItem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemNumericOverflowIsInvalid(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO items").
		WillReturnError(&pgconn.PgError{Code: "22003", Message: "numeric field overflow"})

	_, err := repo.InsertItem(context.Background(), 5, sampleItem(), "PriceFull.xml")
	assert.ErrorIs(t, err, catalog.ErrInvalidItem)
}

func TestFindNearbyStores(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "chain_id", "sub_chain_id", "store_id", "bikoret_no",
		"latitude", "longitude", "address", "city", "created_at", "distance_km",
	}).
		AddRow(int64(1), "729", 1, 10, nil, 32.08, 34.78, "Dizengoff 1", "Tel Aviv", created, 0.4).
		AddRow(int64(2), "729", 1, 11, 3, 32.10, 34.80, nil, nil, created, 2.9)

	mock.ExpectQuery("FROM stores").
		WithArgs(32.0853, 34.7818, 10.0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stores, err := repo.FindNearbyStores(context.Background(), 32.0853, 34.7818, 10)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, int64(1), stores[0].ID)
	assert.Equal(t, "Tel Aviv", *stores[0].City)
	assert.Equal(t, 0.4, stores[0].DistanceKm)
	assert.Nil(t, stores[1].Address)
	require.NotNil(t, stores[1].BikoretNo)
	assert.Equal(t, 3, *stores[1].BikoretNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLatestItemsByNameSingleQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	updated := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"item_code", "item_name", "item_price", "unit_of_measure", "manufacturer_name", "price_update_date",
	}).
		AddRow("1", "Milk", "3.5000", nil, "Tnuva", updated).
		AddRow("2", "BREAD", "4.2500", "unit", nil, updated)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(item_name) = ANY($2::text[])")).
		WithArgs(int64(5), sqlmock.AnyArg()).
		WillReturnRows(rows)

	items, err := repo.FindLatestItemsByName(context.Background(), 5, []string{"milk", "bread", "eggs"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3.5", items[0].Price.String())
	assert.Equal(t, "Tnuva", *items[0].ManufacturerName)
	assert.Equal(t, "4.25", items[1].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLatestItemsByNameEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)
	items, err := repo.FindLatestItemsByName(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErrorKeepsContextErrors(t *testing.T) {
	err := mapError("op", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, catalog.ErrStorageUnavailable)
}

func TestMapErrorConnectionClass(t *testing.T) {
	err := mapError("op", &pgconn.PgError{Code: "08006"})
	assert.ErrorIs(t, err, catalog.ErrStorageUnavailable)

	err = mapError("op", &pgconn.PgError{Code: "42P01"})
	assert.NotErrorIs(t, err, catalog.ErrStorageUnavailable)
}
