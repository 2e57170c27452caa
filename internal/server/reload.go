package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

// ErrReloadInProgress is returned when a second reload overlaps the first.
var ErrReloadInProgress = errors.New("reload already in progress")

// SentimentCachePrefix is purged after a reload so the next scan recomputes
// sentiment from the new snapshot.
const SentimentCachePrefix = "sentiment:"

// Purger is implemented by caches that can drop entries by key prefix.
type Purger interface {
	Purge(prefix string) int
}

// ReloadManager swaps the snapshot behind a ReloadableSource.
type ReloadManager struct {
	source *marketdata.ReloadableSource
	purger Purger
	logger *zap.Logger

	reloadMu sync.Mutex // prevents concurrent reloads

	currentPath string
	loadedAt    time.Time
	stateMu     sync.RWMutex
}

// NewReloadManager creates a ReloadManager for a source already loaded from
// path. purger may be nil.
func NewReloadManager(source *marketdata.ReloadableSource, path string, purger Purger, logger *zap.Logger) *ReloadManager {
	return &ReloadManager{
		source:      source,
		purger:      purger,
		logger:      logger,
		currentPath: path,
		loadedAt:    time.Now(),
	}
}

// CurrentPath returns the snapshot file currently being served.
func (rm *ReloadManager) CurrentPath() string {
	rm.stateMu.RLock()
	defer rm.stateMu.RUnlock()
	return rm.currentPath
}

// LoadedAt returns when the current snapshot was loaded.
func (rm *ReloadManager) LoadedAt() time.Time {
	rm.stateMu.RLock()
	defer rm.stateMu.RUnlock()
	return rm.loadedAt
}

// ReloadResult describes a successful reload.
type ReloadResult struct {
	PreviousPath  string
	Path          string
	LoadedAt      time.Time
	EntriesPurged int
}

// Reload loads the snapshot at path (or the current one when path is empty)
// and swaps it in. On failure the previous snapshot keeps serving.
func (rm *ReloadManager) Reload(ctx context.Context, path string) (*ReloadResult, error) {
	if !rm.reloadMu.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer rm.reloadMu.Unlock()

	previous := rm.CurrentPath()
	if path == "" {
		path = previous
	}

	rm.logger.Info("starting snapshot reload",
		zap.String("previousPath", previous),
		zap.String("path", path),
	)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("snapshot path is a directory: %s", path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next, err := marketdata.NewFileSource(path, rm.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}

	rm.source.Swap(next)

	purged := 0
	if rm.purger != nil {
		purged = rm.purger.Purge(SentimentCachePrefix)
	}

	rm.stateMu.Lock()
	rm.currentPath = path
	rm.loadedAt = time.Now()
	loadedAt := rm.loadedAt
	rm.stateMu.Unlock()

	rm.logger.Info("snapshot reload complete",
		zap.String("previousPath", previous),
		zap.String("path", path),
		zap.Time("loadedAt", loadedAt),
		zap.Int("cacheEntriesPurged", purged),
	)

	return &ReloadResult{
		PreviousPath:  previous,
		Path:          path,
		LoadedAt:      loadedAt,
		EntriesPurged: purged,
	}, nil
}
