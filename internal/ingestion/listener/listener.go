package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/ingestion"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// CatalogListener ingests files that appear or change in the watch directory.
// Events for the same path are coalesced until the file has been quiet for the
// settle delay, so partially written files are not parsed mid-copy.
type CatalogListener struct {
	dir         string
	settleDelay time.Duration
	uc          ingestion.UseCase
	logger      logger.ZapLogger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func NewCatalogListener(dir string, settleDelay time.Duration, uc ingestion.UseCase, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		dir:         dir,
		settleDelay: settleDelay,
		uc:          uc,
		logger:      logger,
		pending:     make(map[string]*time.Timer),
	}
}

// Start registers the directory watch and returns once it is active. Events are
// handled in the background until ctx is cancelled.
func (l *CatalogListener) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	l.logger.Info("Starting catalog directory listener",
		zap.String("directory", l.dir),
		zap.Duration("settle_delay", l.settleDelay),
	)
	l.wg.Add(1)
	go l.loop(ctx, watcher)
	return nil
}

// Wait blocks until the event loop and every in-flight ingestion have returned.
func (l *CatalogListener) Wait() {
	l.wg.Wait()
}

func (l *CatalogListener) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer l.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping catalog directory listener")
			l.stopPending()
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				l.stopPending()
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !ingestion.Supported(ev.Name) {
				continue
			}
			l.schedule(ctx, ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				l.stopPending()
				return
			}
			l.logger.Error("Directory watcher error", zap.Error(err))
		}
	}
}

func (l *CatalogListener) schedule(ctx context.Context, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if t, ok := l.pending[path]; ok && t.Stop() {
		t.Reset(l.settleDelay)
		return
	}

	// Either nothing is pending for path or its ingestion already started.
	var t *time.Timer
	l.wg.Add(1)
	t = time.AfterFunc(l.settleDelay, func() {
		l.mu.Lock()
		if l.pending[path] == t {
			delete(l.pending, path)
		}
		l.mu.Unlock()

		defer l.wg.Done()
		l.ingest(ctx, path)
	})
	l.pending[path] = t
}

func (l *CatalogListener) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := l.uc.IngestFile(ctx, path); err != nil {
		// Already logged with details by the use case; a later write retries it.
		l.logger.Debug("Catalog file not ingested", zap.String("path", path), zap.Error(err))
	}
}

func (l *CatalogListener) stopPending() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for path, t := range l.pending {
		if t.Stop() {
			l.wg.Done()
		}
		delete(l.pending, path)
	}
}
