package ingestion

import (
	"context"

	"github.com/fekuna/omnipos-price-service/internal/model"
)

type UseCase interface {
	// IngestFile parses one file and merges it into the catalog.
	IngestFile(ctx context.Context, path string) (*model.IngestionSummary, error)
	// ScanDirectory ingests every supported file currently in the watch directory.
	ScanDirectory(ctx context.Context) (*model.ScanReport, error)
}

// Publisher receives one event per ingested file.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Indexer receives the rows a file actually inserted.
type Indexer interface {
	IndexItems(ctx context.Context, store *model.Store, items []model.Item) error
}
