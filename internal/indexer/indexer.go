package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

const (
	// Minimum files to index before marking server as ready
	minFilesForReady = 100

	// Default polling interval for change detection
	defaultPollInterval = 30 * time.Second

	// Deleted rows after which a cleanup compacts the database
	vacuumThreshold = 1000
)

// Indexer keeps the metadata store in step with the media directory.
type Indexer struct {
	db                   *database.Database
	mediaDir             string
	indexInterval        time.Duration
	pollInterval         time.Duration
	watch                bool
	stopChan             chan struct{}
	stopOnce             sync.Once
	ctx                  context.Context
	cancel               context.CancelFunc
	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time
	log                  logging.Logger

	// Progress tracking
	filesIndexed  atomic.Int64
	indexProgress atomic.Value

	scanConfig ScanConfig

	// Callback when indexing completes
	onIndexComplete func()

	// Last known state for lightweight change detection
	stateMu            sync.RWMutex
	lastRootModTime    time.Time
	lastTopLevelCount  int
	lastSubdirModTimes map[string]time.Time
}

// IndexProgress tracks the current indexing progress
type IndexProgress struct {
	FilesIndexed int64     `json:"filesIndexed"`
	IsIndexing   bool      `json:"isIndexing"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	FilesIndexed      int64          `json:"filesIndexed"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates an Indexer for mediaDir. A zero indexInterval disables
// periodic full re-indexing.
func New(db *database.Database, mediaDir string, indexInterval time.Duration) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		db:                 db,
		mediaDir:           mediaDir,
		indexInterval:      indexInterval,
		pollInterval:       defaultPollInterval,
		stopChan:           make(chan struct{}),
		ctx:                ctx,
		cancel:             cancel,
		startTime:          time.Now(),
		log:                logging.With("indexer"),
		scanConfig:         DefaultScanConfig(),
		lastSubdirModTimes: make(map[string]time.Time),
	}
	idx.indexProgress.Store(IndexProgress{})
	return idx
}

// SetWatch selects fsnotify change notification instead of polling.
func (idx *Indexer) SetWatch(enabled bool) {
	idx.watch = enabled
}

// SetScanConfig sets the full scan configuration.
func (idx *Indexer) SetScanConfig(config ScanConfig) {
	idx.scanConfig = config
}

// SetOnIndexComplete sets a callback to be invoked when indexing completes.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start runs the initial index in the background and begins change
// detection and periodic re-indexing.
func (idx *Indexer) Start() error {
	go func() {
		idx.log.Info("Starting initial index in background...")
		if err := idx.Index(idx.ctx); err != nil {
			idx.log.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	if idx.watch {
		w, err := newWatcher(idx)
		if err != nil {
			idx.log.Warn("File watching unavailable, falling back to polling: %v", err)
			go idx.pollForChanges()
		} else {
			go w.run(idx.ctx)
		}
	} else {
		go idx.pollForChanges()
	}

	if idx.indexInterval > 0 {
		go idx.periodicIndex()
	}

	return nil
}

// Stop stops background work and cancels any running index.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		close(idx.stopChan)
		idx.cancel()
	})
}

// IsReady returns true if the server is ready to accept traffic.
func (idx *Indexer) IsReady() bool {
	if idx.filesIndexed.Load() >= minFilesForReady {
		return true
	}

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

func (idx *Indexer) getProgress() IndexProgress {
	if progress, ok := idx.indexProgress.Load().(IndexProgress); ok {
		return progress
	}
	return IndexProgress{}
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	progress := idx.getProgress()

	status := HealthStatus{
		Ready:        idx.initialIndexComplete || idx.filesIndexed.Load() >= minFilesForReady,
		Indexing:     idx.isIndexing,
		StartTime:    idx.startTime,
		Uptime:       time.Since(idx.startTime).String(),
		LastIndexed:  idx.lastIndexTime,
		FilesIndexed: idx.filesIndexed.Load(),
	}

	if idx.isIndexing {
		status.IndexProgress = &progress
	}

	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}

// Index performs a full scan of the media directory. Records of files that
// were not seen are removed only when the scan completes.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		idx.log.Info("Index already in progress, skipping...")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	startTime := time.Now()
	idx.log.Info("Starting file indexing of %s...", idx.mediaDir)
	idx.resetCounters(startTime)

	s := newScanner(idx.mediaDir, idx.scanConfig)
	err := s.run(ctx, func(batch []*database.Image) error {
		if err := idx.processBatch(batch, startTime); err != nil {
			return err
		}
		idx.filesIndexed.Add(int64(len(batch)))
		metrics.IndexerFilesProcessed.Add(float64(len(batch)))
		idx.updateProgress(startTime)
		return nil
	})

	seen, indexed, failed := s.stats()
	if err != nil {
		metrics.IndexerErrors.Inc()
		return fmt.Errorf("scan of %s: %w", idx.mediaDir, err)
	}
	if failed > 0 {
		idx.log.Warn("%d of %d files could not be read", failed, seen)
	}

	if err := idx.cleanupMissingFiles(startTime); err != nil {
		idx.log.Error("Error cleaning up missing files: %v", err)
		metrics.IndexerErrors.Inc()
	}

	if err := idx.db.SetLastIndexRun(ctx, time.Now()); err != nil {
		idx.log.Warn("Failed to record index run: %v", err)
	}

	idx.finalizeIndex(startTime, indexed)
	idx.updateLastKnownState()

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(time.Since(startTime).Seconds())

	return nil
}

// Rescan indexes the single file at path, or removes its record when the
// file no longer exists.
func (idx *Indexer) Rescan(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := statImage(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return idx.Remove(ctx, path)
	case err != nil:
		return err
	}

	if err := idx.processBatch([]*database.Image{img}, time.Now()); err != nil {
		return err
	}
	idx.log.Debug("rescanned %s", path)
	return nil
}

// Remove deletes the record stored for path.
func (idx *Indexer) Remove(ctx context.Context, path string) error {
	n, err := idx.db.DeleteByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("remove %s from index: %w", path, err)
	}
	if n > 0 {
		idx.log.Debug("removed %s from index", path)
	}
	return nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.initialIndexComplete = true
}

func (idx *Indexer) resetCounters(startTime time.Time) {
	idx.filesIndexed.Store(0)
	idx.indexProgress.Store(IndexProgress{
		IsIndexing: true,
		StartedAt:  startTime,
	})
}

func (idx *Indexer) updateProgress(startTime time.Time) {
	idx.indexProgress.Store(IndexProgress{
		FilesIndexed: idx.filesIndexed.Load(),
		IsIndexing:   true,
		StartedAt:    startTime,
	})
}

func (idx *Indexer) finalizeIndex(startTime time.Time, totalFiles int64) {
	duration := time.Since(startTime)

	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.indexMu.Unlock()

	idx.indexProgress.Store(IndexProgress{
		FilesIndexed: totalFiles,
		IsIndexing:   false,
	})

	idx.log.Info("Index complete: %d images in %v", totalFiles, duration)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

// processBatch writes images in a single transaction, marking them seen.
func (idx *Indexer) processBatch(images []*database.Image, seen time.Time) error {
	if len(images) == 0 {
		return nil
	}

	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	for _, img := range images {
		if err := idx.db.UpsertImage(tx, img, seen); err != nil {
			idx.log.Warn("Error upserting image %s: %v", img.Path, err)
		}
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// cleanupMissingFiles removes images that were not seen since indexTime.
func (idx *Indexer) cleanupMissingFiles(indexTime time.Time) error {
	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin cleanup transaction: %w", err)
	}

	deleted, err := idx.db.DeleteMissing(tx, indexTime)
	if err != nil {
		if endErr := idx.db.EndBatch(tx, err); endErr != nil {
			idx.log.Error("failed to end batch after cleanup error: %v", endErr)
		}
		return err
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit cleanup: %w", err)
	}

	if deleted > 0 {
		idx.log.Info("Removed %d missing images from index", deleted)
	}
	if deleted >= vacuumThreshold {
		if err := idx.db.Vacuum(); err != nil {
			idx.log.Warn("failed to vacuum database: %v", err)
		}
	}

	return nil
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			idx.log.Debug("Periodic re-index triggered")
			if err := idx.Index(idx.ctx); err != nil {
				idx.log.Error("periodic re-index failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// IsIndexing returns whether an index operation is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the time of the last completed index operation.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// TriggerIndex starts a re-index in the background.
func (idx *Indexer) TriggerIndex() {
	go func() {
		if err := idx.Index(idx.ctx); err != nil {
			idx.log.Error("manually triggered re-index failed: %v", err)
		}
	}()
}
