package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// pollForChanges periodically checks for file changes.
func (idx *Indexer) pollForChanges() {
	// Wait for initial index to complete
	for !idx.IsReady() {
		select {
		case <-time.After(1 * time.Second):
		case <-idx.stopChan:
			return
		}
	}

	idx.log.Info("Starting change detection polling (interval: %v)", idx.pollInterval)

	ticker := time.NewTicker(idx.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			changed, err := idx.detectChanges()
			if err != nil {
				idx.log.Error("Error detecting changes: %v", err)
				continue
			}
			if changed {
				idx.log.Info("File changes detected, triggering re-index")
				if err := idx.Index(idx.ctx); err != nil {
					idx.log.Error("Re-index after change detection failed: %v", err)
				}
			}
		case <-idx.stopChan:
			idx.log.Info("Change detection polling stopped")
			return
		}
	}
}

// detectChanges checks the root directory's modification time, its visible
// entry count and the modification times of its subdirectories. It never
// walks the whole tree.
func (idx *Indexer) detectChanges() (bool, error) {
	rootInfo, entries, err := idx.readRoot()
	if err != nil {
		return false, err
	}

	idx.stateMu.RLock()
	lastRootModTime := idx.lastRootModTime
	lastTopLevelCount := idx.lastTopLevelCount
	lastSubdirModTimes := idx.lastSubdirModTimes
	idx.stateMu.RUnlock()

	if rootInfo.ModTime().After(lastRootModTime) {
		idx.log.Debug("Root directory modified: %v > %v", rootInfo.ModTime(), lastRootModTime)
		return true, nil
	}

	count, subdirs := idx.summarize(entries)
	if count != lastTopLevelCount {
		idx.log.Debug("Top-level count changed: %d -> %d", lastTopLevelCount, count)
		return true, nil
	}

	for name, mod := range subdirs {
		last, ok := lastSubdirModTimes[name]
		if !ok {
			idx.log.Debug("New subdirectory detected: %s", name)
			return true, nil
		}
		if mod.After(last) {
			idx.log.Debug("Subdirectory %s modified: %v > %v", name, mod, last)
			return true, nil
		}
	}

	return false, nil
}

// updateLastKnownState updates the cached state after indexing.
func (idx *Indexer) updateLastKnownState() {
	rootInfo, entries, err := idx.readRoot()
	if err != nil {
		idx.log.Warn("Failed to read media directory for state update: %v", err)
		return
	}

	count, subdirs := idx.summarize(entries)

	idx.stateMu.Lock()
	idx.lastRootModTime = rootInfo.ModTime()
	idx.lastTopLevelCount = count
	idx.lastSubdirModTimes = subdirs
	idx.stateMu.Unlock()
}

func (idx *Indexer) readRoot() (os.FileInfo, []fs.DirEntry, error) {
	rootInfo, err := os.Stat(idx.mediaDir)
	if err != nil {
		return nil, nil, err
	}
	entries, err := os.ReadDir(idx.mediaDir)
	if err != nil {
		return nil, nil, err
	}
	return rootInfo, entries, nil
}

// summarize counts visible entries and records subdirectory mod times.
func (idx *Indexer) summarize(entries []fs.DirEntry) (int, map[string]time.Time) {
	count := 0
	subdirs := make(map[string]time.Time)

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		count++

		if entry.IsDir() {
			if info, err := os.Stat(filepath.Join(idx.mediaDir, entry.Name())); err == nil {
				subdirs[entry.Name()] = info.ModTime()
			}
		}
	}
	return count, subdirs
}
