package handlers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/importer"
	"photo-library/internal/indexer"
	"photo-library/internal/library"
	"photo-library/internal/startup"
	"photo-library/internal/testutil"
)

// testEnv is a handler stack backed by a real sqlite database and indexer.
type testEnv struct {
	h        *Handlers
	mediaDir string
	db       *database.Database
	idx      *indexer.Indexer
	lib      *library.Service
}

func setupTestHandlers(t *testing.T) *testEnv {
	t.Helper()
	return setupTestHandlersWithConfig(t, func(*startup.Config) {})
}

func setupTestHandlersWithConfig(t *testing.T, configure func(*startup.Config)) *testEnv {
	t.Helper()

	mediaDir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	idx := indexer.New(db, mediaDir, 0)
	t.Cleanup(idx.Stop)
	lib := library.New(db)
	imp := importer.New(mediaDir, idx, lib,
		importer.WithClock(func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local) }))

	config := &startup.Config{
		MediaDir:            mediaDir,
		DefaultChunkItems:   startup.DefaultChunkItems,
		DefaultChunkSeconds: startup.DefaultChunkSeconds,
	}
	configure(config)

	return &testEnv{
		h:        New(db, idx, lib, imp, config),
		mediaDir: mediaDir,
		db:       db,
		idx:      idx,
		lib:      lib,
	}
}

// addPhoto writes a JPEG fixture into album and returns its path.
func (e *testEnv) addPhoto(t *testing.T, album, name string, width, height, orient int) string {
	t.Helper()
	return testutil.WriteJPEG(t, filepath.Join(e.mediaDir, album), name,
		testutil.QuadrantImage(width, height), testutil.EXIF{Orientation: orient})
}

// index runs a full scan and fails the test on error.
func (e *testEnv) index(t *testing.T) {
	t.Helper()
	if err := e.idx.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
}

// idOf returns the composite id of the item stored at path.
func (e *testEnv) idOf(t *testing.T, path string) string {
	t.Helper()

	items, err := e.lib.Lookup(context.Background(), library.ByPath(path))
	if err != nil {
		t.Fatalf("Lookup(%s) error = %v", path, err)
	}
	if len(items) != 1 {
		t.Fatalf("Lookup(%s) found %d items, want 1", path, len(items))
	}
	return items[0].ID
}
