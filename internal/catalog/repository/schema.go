package repository

// schemaStatements are idempotent and run once at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
        id SERIAL PRIMARY KEY,
        chain_id VARCHAR NOT NULL,
        sub_chain_id INTEGER NOT NULL,
        store_id INTEGER NOT NULL,
        bikoret_no INTEGER,
        latitude DECIMAL(10, 8),
        longitude DECIMAL(11, 8),
        address TEXT,
        city VARCHAR(100),
        created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
        UNIQUE (chain_id, sub_chain_id, store_id)
    )`,
	`CREATE TABLE IF NOT EXISTS items (
        id UUID PRIMARY KEY,
        store_pk INTEGER NOT NULL REFERENCES stores(id),
        item_code VARCHAR NOT NULL,
        item_type INTEGER NOT NULL,
        item_name VARCHAR NOT NULL,
        manufacturer_name VARCHAR,
        manufacture_country VARCHAR,
        manufacturer_item_description VARCHAR,
        unit_qty VARCHAR,
        quantity VARCHAR,
        unit_of_measure VARCHAR,
        is_weighted INTEGER,
        qty_in_package VARCHAR,
        item_price DECIMAL(10, 4) NOT NULL,
        unit_of_measure_price DECIMAL(10, 4),
        allow_discount INTEGER,
        item_status INTEGER,
        price_update_date TIMESTAMP NOT NULL,
        processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
        file_source VARCHAR,
        UNIQUE (store_pk, item_code, price_update_date)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_stores_location ON stores (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_items_store_lower_name ON items (store_pk, LOWER(item_name), price_update_date DESC)`,
}
