package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photo-library/internal/testutil"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcherRescansNewAndRemovedFiles(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	idx := newTestIndexer(t, db, root)

	w, err := newWatcher(idx)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	w.delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.run(ctx)

	count := func() int {
		n, _ := db.Count(context.Background())
		return n
	}

	path := testutil.WriteJPEG(t, root, "drop.jpg", testutil.GradientImage(16, 16), testutil.EXIF{})
	waitFor(t, "new file to be indexed", func() bool { return count() == 1 })

	// Files in a new directory are picked up as well.
	sub := filepath.Join(root, "Album")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteJPEG(t, sub, "nested.jpg", testutil.GradientImage(16, 16), testutil.EXIF{})
	waitFor(t, "nested file to be indexed", func() bool { return count() == 2 })

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "removed file to leave the index", func() bool { return count() == 1 })
}
