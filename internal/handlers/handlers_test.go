package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"photo-library/internal/importer"
	"photo-library/internal/library"
	"photo-library/internal/memory"
)

// =============================================================================
// Error Mapping Tests
// =============================================================================

func TestErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", library.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", library.ErrNotFound), http.StatusNotFound},
		{"missing file", fs.ErrNotExist, http.StatusNotFound},
		{"permission denied", library.ErrPermissionDenied, http.StatusForbidden},
		{"invalid reference", library.ErrInvalidReference, http.StatusBadRequest},
		{"invalid request", library.ErrInvalidRequest, http.StatusBadRequest},
		{"invalid url", importer.ErrInvalidURL, http.StatusBadRequest},
		{"invalid album", importer.ErrInvalidAlbum, http.StatusBadRequest},
		{"unsupported media", importer.ErrUnsupportedMedia, http.StatusBadRequest},
		{"decode", library.ErrDecode, http.StatusUnprocessableEntity},
		{"orientation read", library.ErrOrientationRead, http.StatusInternalServerError},
		{"shutting down", memory.ErrStopped, http.StatusServiceUnavailable},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, message := errorResponse(tt.err)
			if status != tt.status {
				t.Errorf("errorResponse(%v) status = %d, want %d", tt.err, status, tt.status)
			}
			if message == "" {
				t.Error("Expected a non-empty message")
			}
		})
	}
}

func TestErrorResponsePermissionMessage(t *testing.T) {
	t.Parallel()

	_, message := errorResponse(fmt.Errorf("open: %w", library.ErrPermissionDenied))
	want := "Permission Denial: This application is not allowed to access Photo data."
	if message != want {
		t.Errorf("message = %q, want %q", message, want)
	}
}

func TestErrorResponseHidesInternalErrors(t *testing.T) {
	t.Parallel()

	_, message := errorResponse(errors.New("sqlite: database is locked at /data/photos.db"))
	if message != "Internal server error" {
		t.Errorf("message = %q, internal details leaked", message)
	}
}

func TestWriteErrorSkipsGoneClients(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/photo", http.NoBody).WithContext(ctx)
	w := httptest.NewRecorder()

	writeError(w, req, context.Canceled)

	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for a canceled request, got %q", w.Body.String())
	}
}

// =============================================================================
// Path Tests
// =============================================================================

func TestIsSubPath(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/photos")
	tests := []struct {
		child string
		want  bool
	}{
		{"/photos", true},
		{"/photos/a.jpg", true},
		{"/photos/album/b.jpg", true},
		{"/photos/../etc/passwd", false},
		{"/photosynthesis/a.jpg", false},
		{"/other/a.jpg", false},
		{"/photos/..hidden/a.jpg", true},
	}

	for _, tt := range tests {
		if got := isSubPath(root, filepath.FromSlash(tt.child)); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", root, tt.child, got, tt.want)
		}
	}
}

// =============================================================================
// Render Slot Tests
// =============================================================================

func TestAcquireRenderBlocksWhenFull(t *testing.T) {
	t.Parallel()

	h := &Handlers{renders: make(chan struct{}, 1)}

	release, err := h.acquireRender(context.Background())
	if err != nil {
		t.Fatalf("acquireRender() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.acquireRender(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("acquireRender() on a full pool = %v, want DeadlineExceeded", err)
	}

	release()

	release, err = h.acquireRender(context.Background())
	if err != nil {
		t.Fatalf("acquireRender() after release error = %v", err)
	}
	release()
}

func TestAcquireRenderCanceledContext(t *testing.T) {
	t.Parallel()

	h := &Handlers{renders: make(chan struct{}, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.acquireRender(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("acquireRender() = %v, want Canceled", err)
	}
	if len(h.renders) != 0 {
		t.Errorf("Expected no slot to be held, got %d", len(h.renders))
	}
}

func TestAcquireRenderStoppedMonitor(t *testing.T) {
	t.Parallel()

	m := memory.NewMonitor(memory.Config{
		MemoryLimitBytes:  1,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Millisecond,
	})
	m.Start()

	h := &Handlers{renders: make(chan struct{}, 1)}
	h.SetMemoryMonitor(m)

	// Any heap use is over a 1-byte limit.
	deadline := time.Now().Add(5 * time.Second)
	for !m.Paused() {
		if time.Now().After(deadline) {
			t.Fatal("monitor never paused")
		}
		time.Sleep(time.Millisecond)
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.acquireRender(context.Background())
		done <- err
	}()
	m.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, memory.ErrStopped) {
			t.Errorf("acquireRender() = %v, want ErrStopped", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("acquireRender did not return after Stop")
	}
}
