package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/catalog/parser"
	"github.com/fekuna/omnipos-price-service/internal/ingestion"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

const EventCatalogIngested = "CatalogIngested"

// CatalogIngestedEvent is published once per processed file.
type CatalogIngestedEvent struct {
	EventType string                  `json:"event_type"`
	Payload   *model.IngestionSummary `json:"payload"`
	Timestamp time.Time               `json:"timestamp"`
}

var locationsHeader = []string{"chain_id", "sub_chain_id", "store_id", "latitude", "longitude", "address", "city"}

type ingestionUseCase struct {
	repo      catalog.Repository
	dir       string
	publisher ingestion.Publisher
	indexer   ingestion.Indexer
	logger    logger.ZapLogger
}

// NewIngestionUseCase wires the pipeline. publisher and indexer may be nil.
func NewIngestionUseCase(repo catalog.Repository, dir string, publisher ingestion.Publisher, indexer ingestion.Indexer, log logger.ZapLogger) ingestion.UseCase {
	return &ingestionUseCase{
		repo:      repo,
		dir:       dir,
		publisher: publisher,
		indexer:   indexer,
		logger:    log,
	}
}

func (uc *ingestionUseCase) IngestFile(ctx context.Context, path string) (*model.IngestionSummary, error) {
	switch ingestion.KindOf(path) {
	case ingestion.KindCatalog, ingestion.KindCatalogGzip:
		return uc.ingestCatalog(ctx, path)
	case ingestion.KindLocations:
		return uc.ingestLocations(ctx, path)
	default:
		return nil, fmt.Errorf("%w: unsupported file %s", catalog.ErrInvalidInput, filepath.Base(path))
	}
}

func (uc *ingestionUseCase) ScanDirectory(ctx context.Context) (*model.ScanReport, error) {
	entries, err := os.ReadDir(uc.dir)
	if err != nil {
		return nil, fmt.Errorf("read watch directory %s: %w", uc.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !ingestion.Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(uc.dir, e.Name()))
	}
	// Locations first so stores found by the scan already carry coordinates.
	sort.SliceStable(paths, func(i, j int) bool {
		return ingestion.KindOf(paths[i]) == ingestion.KindLocations && ingestion.KindOf(paths[j]) != ingestion.KindLocations
	})

	report := &model.ScanReport{}
	for _, p := range paths {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Files++
		if _, err := uc.IngestFile(ctx, p); err != nil {
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	uc.logger.Info("Directory scan finished",
		zap.String("directory", uc.dir),
		zap.Int("files", report.Files),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (uc *ingestionUseCase) ingestCatalog(ctx context.Context, path string) (*model.IngestionSummary, error) {
	source := filepath.Base(path)
	log := uc.logger.With(zap.String("file", source))

	content, err := readCatalog(path)
	if err != nil {
		log.Error("Failed to read catalog file", zap.Error(err))
		return nil, err
	}
	cat, err := parser.Parse(content)
	if err != nil {
		log.Error("Failed to parse catalog file", zap.Error(err))
		return nil, err
	}

	summary := &model.IngestionSummary{
		File:      source,
		Store:     cat.Store,
		Total:     len(cat.Items),
		StartedAt: time.Now().UTC(),
	}

	store, err := uc.repo.UpsertStore(ctx, cat.Store, cat.BikoretNo)
	if err != nil {
		log.Error("Failed to upsert store", zap.Any("store", cat.Store), zap.Error(err))
		return nil, err
	}

	var inserted []model.Item
	for i := range cat.Items {
		ci := &cat.Items[i]
		item, err := uc.repo.InsertItem(ctx, store.ID, ci, source)
		switch {
		case err == nil:
			summary.Processed++
			inserted = append(inserted, *item)
		case errors.Is(err, catalog.ErrDuplicateItem):
			summary.Skipped++
			log.Debug("Item already ingested", zap.String("item_code", ci.ItemCode))
		case errors.Is(err, catalog.ErrStorageUnavailable),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			summary.Failed += summary.Total - summary.Processed - summary.Skipped - summary.Failed
			summary.FinishedAt = time.Now().UTC()
			log.Error("Aborting catalog file", zap.Int("item_index", i), zap.Error(err))
			return summary, err
		default:
			summary.Failed++
			log.Error("Failed to store item", zap.String("item_code", ci.ItemCode), zap.Error(err))
		}
	}
	summary.FinishedAt = time.Now().UTC()

	log.Info("Catalog file ingested",
		zap.String("chain_id", cat.Store.ChainID),
		zap.Int("sub_chain_id", cat.Store.SubChainID),
		zap.Int("store_id", cat.Store.StoreID),
		zap.Int("total", summary.Total),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	uc.publish(ctx, summary)
	if uc.indexer != nil && len(inserted) > 0 {
		if err := uc.indexer.IndexItems(ctx, store, inserted); err != nil {
			log.Warn("Failed to index ingested items", zap.Error(err))
		}
	}
	return summary, nil
}

func readCatalog(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var r io.Reader = f
	if ingestion.KindOf(path) == ingestion.KindCatalogGzip {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", catalog.ErrMalformedCatalog, filepath.Base(path), err)
		}
		defer gz.Close()
		r = gz
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return content, nil
}

func (uc *ingestionUseCase) ingestLocations(ctx context.Context, path string) (*model.IngestionSummary, error) {
	source := filepath.Base(path)
	log := uc.logger.With(zap.String("file", source))

	f, err := os.Open(path)
	if err != nil {
		log.Error("Failed to open locations file", zap.Error(err))
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()

	return uc.readLocations(ctx, f, source)
}

func (uc *ingestionUseCase) readLocations(ctx context.Context, in io.Reader, source string) (*model.IngestionSummary, error) {
	log := uc.logger.With(zap.String("file", source))

	r := csv.NewReader(in)
	r.FieldsPerRecord = len(locationsHeader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		log.Error("Failed to read locations header", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: header: %w", catalog.ErrMalformedCatalog, source, err)
	}
	for i, col := range locationsHeader {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")), col) {
			return nil, fmt.Errorf("%w: %s: expected column %q, got %q", catalog.ErrMalformedCatalog, source, col, header[i])
		}
	}

	summary := &model.IngestionSummary{File: source, StartedAt: time.Now().UTC()}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		summary.Total++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			summary.Failed++
			log.Warn("Skipping malformed locations row", zap.Error(err))
			continue
		}
		if err != nil {
			summary.Failed++
			summary.FinishedAt = time.Now().UTC()
			log.Error("Aborting locations file", zap.Error(err))
			return summary, fmt.Errorf("read %s: %w", source, err)
		}
		loc, err := parseLocation(record)
		if err != nil {
			summary.Failed++
			log.Warn("Skipping invalid locations row", zap.Int("row", summary.Total), zap.Error(err))
			continue
		}
		if _, err := uc.repo.UpsertStoreLocation(ctx, loc); err != nil {
			if errors.Is(err, catalog.ErrStorageUnavailable) || ctx.Err() != nil {
				summary.FinishedAt = time.Now().UTC()
				log.Error("Aborting locations file", zap.Error(err))
				return summary, err
			}
			summary.Failed++
			log.Error("Failed to store location", zap.Any("store", loc.StoreIdentity), zap.Error(err))
			continue
		}
		summary.Processed++
	}
	summary.FinishedAt = time.Now().UTC()

	log.Info("Store locations ingested",
		zap.Int("total", summary.Total),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
	)
	uc.publish(ctx, summary)
	return summary, nil
}

func parseLocation(record []string) (*model.StoreLocation, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if record[0] == "" {
		return nil, fmt.Errorf("%w: chain_id is empty", catalog.ErrInvalidInput)
	}
	subChain, err := strconv.Atoi(record[1])
	if err != nil {
		return nil, fmt.Errorf("%w: sub_chain_id: %w", catalog.ErrInvalidInput, err)
	}
	storeID, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, fmt.Errorf("%w: store_id: %w", catalog.ErrInvalidInput, err)
	}
	lat, err := strconv.ParseFloat(record[3], 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude %q", catalog.ErrInvalidInput, record[3])
	}
	lon, err := strconv.ParseFloat(record[4], 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: longitude %q", catalog.ErrInvalidInput, record[4])
	}

	loc := &model.StoreLocation{
		StoreIdentity: model.StoreIdentity{ChainID: record[0], SubChainID: subChain, StoreID: storeID},
		Latitude:      lat,
		Longitude:     lon,
	}
	if record[5] != "" {
		loc.Address = &record[5]
	}
	if record[6] != "" {
		loc.City = &record[6]
	}
	return loc, nil
}

func (uc *ingestionUseCase) publish(ctx context.Context, summary *model.IngestionSummary) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(CatalogIngestedEvent{
		EventType: EventCatalogIngested,
		Payload:   summary,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Error("Failed to marshal ingestion event", zap.Error(err))
		return
	}
	key := []byte(summary.File)
	if summary.Store.ChainID != "" {
		key = []byte(fmt.Sprintf("%s:%d:%d", summary.Store.ChainID, summary.Store.SubChainID, summary.Store.StoreID))
	}
	if err := uc.publisher.Publish(ctx, key, payload); err != nil {
		uc.logger.Warn("Failed to publish ingestion event", zap.String("file", summary.File), zap.Error(err))
	}
}
