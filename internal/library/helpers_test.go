package library

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/orientation"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t testing.TB) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seed(t testing.TB, db *database.Database, images ...*database.Image) {
	t.Helper()

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	for _, img := range images {
		if err := db.UpsertImage(tx, img, baseTime); err != nil {
			_ = db.EndBatch(tx, err)
			t.Fatalf("UpsertImage(%s) failed: %v", img.Path, err)
		}
	}
	if err := db.EndBatch(tx, nil); err != nil {
		t.Fatalf("EndBatch failed: %v", err)
	}
}

// photo returns a record for path, taken n minutes before baseTime so that
// lower n sorts first.
func photo(path string, n int) *database.Image {
	taken := baseTime.Add(-time.Duration(n) * time.Minute)
	return &database.Image{
		DisplayName: filepath.Base(path),
		Path:        path,
		Width:       4000,
		Height:      3000,
		MimeType:    "image/jpeg",
		BucketID:    7,
		BucketName:  "Camera",
		DateTaken:   taken,
		Size:        1,
		ModTime:     taken,
	}
}

func seedN(t testing.TB, db *database.Database, n int) {
	t.Helper()

	images := make([]*database.Image, n)
	for i := range images {
		images[i] = photo(fmt.Sprintf("/media/camera/IMG_%04d.jpg", i), i)
	}
	seed(t, db, images...)
}

// fixedOrientation reports code for every path.
func fixedOrientation(code orientation.Code) func(string) (orientation.Code, error) {
	return func(string) (orientation.Code, error) { return code, nil }
}

func collect(t *testing.T, svc *Service, ctx context.Context, policy ChunkingPolicy, filter Filter) ([]Chunk, error) {
	t.Helper()

	var chunks []Chunk
	for chunk, err := range svc.Enumerate(ctx, policy, filter) {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func chunkSizes(chunks []Chunk) []int {
	sizes := make([]int, len(chunks))
	for i, c := range chunks {
		sizes[i] = len(c.Items)
	}
	return sizes
}
