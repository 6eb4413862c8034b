package catalog

import "errors"

var (
	// ErrMalformedCatalog means a catalog file could not be decoded. The whole file is skipped.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrDuplicateItem means the (store, item code, price date) row already exists.
	ErrDuplicateItem = errors.New("duplicate item")
	// ErrInvalidItem means an item's price or date text could not be converted.
	ErrInvalidItem = errors.New("invalid item")
	// ErrStorageUnavailable tags connection and transport failures of the relational store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput tags client input rejected before any lookup.
	ErrInvalidInput = errors.New("invalid input")
)
