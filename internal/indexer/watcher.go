package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photo-library/internal/metrics"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
)

// settleDelay coalesces bursts of events for one file, such as the writes of
// a copy in progress.
const settleDelay = 500 * time.Millisecond

// watcher rescans files as fsnotify reports them changing.
type watcher struct {
	idx     *Indexer
	fs      *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*time.Timer
	delay   time.Duration
}

func newWatcher(idx *Indexer) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		idx:     idx,
		fs:      fw,
		pending: make(map[string]*time.Timer),
		delay:   settleDelay,
	}
	idx.log.Debug("watcher started, watching %d directories", w.addTree(idx.mediaDir))
	return w, nil
}

// addTree watches root and every visible directory below it.
func (w *watcher) addTree(root string) int {
	count := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if path != filepath.Clean(root) && strings.HasPrefix(de.Name(), ".") {
				return godirwalk.SkipThis
			}
			if err := w.fs.Add(path); err != nil {
				w.idx.log.Warn("failed to add path to watcher %s: %v", path, err)
				return nil
			}
			count++
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			w.idx.log.Warn("failed to walk %s for watcher: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		w.idx.log.Error("failed to walk media directory for watcher: %v", err)
	}
	return count
}

func (w *watcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.mu.Unlock()
		if err := w.fs.Close(); err != nil {
			w.idx.log.Error("failed to close file watcher: %v", err)
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.idx.log.Error("Watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *watcher) handle(ctx context.Context, event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.addTree(event.Name)
			w.rescanTree(ctx, event.Name)
			return
		}
		w.schedule(ctx, event.Name)

	case event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !isCandidate(filepath.Base(event.Name)) {
			return
		}
		metrics.IndexerWatcherEvents.WithLabelValues("remove").Inc()
		if err := w.idx.Remove(ctx, event.Name); err != nil {
			w.idx.log.Warn("%v", err)
		}
	}
}

// schedule rescans path once it has been quiet for w.delay.
func (w *watcher) schedule(ctx context.Context, path string) {
	if !isCandidate(filepath.Base(path)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		metrics.IndexerWatcherEvents.WithLabelValues("rescan").Inc()
		if err := w.idx.Rescan(ctx, path); err != nil {
			w.idx.log.Debug("rescan of %s failed: %v", path, err)
		}
	})
}

// rescanTree schedules every image below a newly created directory.
func (w *watcher) rescanTree(ctx context.Context, root string) {
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if strings.HasPrefix(de.Name(), ".") && path != filepath.Clean(root) {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !de.IsDir() {
				w.schedule(ctx, path)
			}
			return nil
		},
		ErrorCallback: func(string, error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		w.idx.log.Warn("failed to scan new directory %s: %v", root, err)
	}
}
