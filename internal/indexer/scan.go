package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/workers"

	"github.com/karrick/godirwalk"
)

// ScanConfig configures a full scan.
type ScanConfig struct {
	// NumWorkers is the number of metadata extraction workers.
	NumWorkers int
	// BatchSize is the number of records written per transaction.
	BatchSize int
	// ChannelBuffer is the size of the job and result buffers.
	ChannelBuffer int
}

// DefaultScanConfig sizes the worker pool for I/O-bound work.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		NumWorkers:    workers.ForIndex(),
		BatchSize:     500,
		ChannelBuffer: 1000,
	}
}

type scanResult struct {
	img *database.Image
	err error
}

// scanner walks a media directory and extracts image metadata in parallel.
type scanner struct {
	root   string
	config ScanConfig

	filesSeen    atomic.Int64
	filesIndexed atomic.Int64
	errorsCount  atomic.Int64
}

func newScanner(root string, config ScanConfig) *scanner {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &scanner{root: filepath.Clean(root), config: config}
}

// run walks the tree and hands every extracted record to sink in batches of
// config.BatchSize.
func (s *scanner) run(ctx context.Context, sink func([]*database.Image) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string, s.config.ChannelBuffer)
	results := make(chan scanResult, s.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, jobs, results)
		}()
	}

	var walkErr error
	go func() {
		walkErr = s.walk(ctx, jobs)
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var sinkErr error
	batch := make([]*database.Image, 0, s.config.BatchSize)
	flush := func() {
		if len(batch) == 0 || sinkErr != nil {
			return
		}
		if err := sink(batch); err != nil {
			sinkErr = err
			cancel()
		}
		batch = make([]*database.Image, 0, s.config.BatchSize)
	}

	for r := range results {
		if sinkErr != nil {
			continue
		}
		if r.err != nil {
			if !errors.Is(r.err, errNotImage) {
				s.errorsCount.Add(1)
				logging.Debug("Error processing file: %v", r.err)
			}
			continue
		}
		s.filesIndexed.Add(1)
		batch = append(batch, r.img)
		if len(batch) >= s.config.BatchSize {
			flush()
		}
	}
	flush()

	if sinkErr != nil {
		return sinkErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return walkErr
}

func (s *scanner) walk(ctx context.Context, jobs chan<- string) error {
	return godirwalk.Walk(s.root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == s.root {
				return nil
			}
			if strings.HasPrefix(de.Name(), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() || !isCandidate(de.Name()) {
				return nil
			}

			s.filesSeen.Add(1)
			select {
			case jobs <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			logging.Warn("Error accessing path %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
}

func (s *scanner) worker(ctx context.Context, jobs <-chan string, results chan<- scanResult) {
	for path := range jobs {
		if ctx.Err() != nil {
			// Drain so the walker never blocks.
			continue
		}

		start := time.Now()
		img, err := statImage(path)
		if err == nil {
			logging.Debug("extracted %s in %v", path, time.Since(start))
		}

		select {
		case results <- scanResult{img: img, err: err}:
		case <-ctx.Done():
		}
	}
}

// stats returns files seen, indexed and failed.
func (s *scanner) stats() (seen, indexed, failed int64) {
	return s.filesSeen.Load(), s.filesIndexed.Load(), s.errorsCount.Load()
}
