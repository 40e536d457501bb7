package handlers

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photo-library/internal/library"
	"photo-library/internal/media"
	"photo-library/internal/testutil"
)

func getThumbnail(h *Handlers, query url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/thumbnail?"+query.Encode(), http.NoBody)
	w := httptest.NewRecorder()
	h.GetThumbnail(w, req)
	return w
}

func getPhoto(h *Handlers, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/photo?"+url.Values{"id": {id}}.Encode(), http.NoBody)
	w := httptest.NewRecorder()
	h.GetPhoto(w, req)
	return w
}

// =============================================================================
// GetThumbnail Tests
// =============================================================================

func TestGetThumbnail(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "a.jpg", 400, 300, 1)
	env.index(t)

	w := getThumbnail(env.h, url.Values{
		"id":      {env.idOf(t, path)},
		"width":   {"100"},
		"height":  {"100"},
		"quality": {"0.8"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	if w.Header().Get("Content-Length") == "" {
		t.Error("Expected Content-Length to be set")
	}

	img, err := jpeg.Decode(w.Body)
	if err != nil {
		t.Fatalf("Thumbnail is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("Thumbnail size = %dx%d, want 100x100", b.Dx(), b.Dy())
	}
}

func TestGetThumbnailRotated(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "portrait.jpg", 400, 200, 6)
	env.index(t)

	w := getThumbnail(env.h, url.Values{
		"id":     {env.idOf(t, path)},
		"width":  {"50"},
		"height": {"100"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	img, err := jpeg.Decode(w.Body)
	if err != nil {
		t.Fatalf("Thumbnail is not a JPEG: %v", err)
	}

	// Orientation 6 turns the top-left quadrant into the top-right one.
	if !testutil.ColorNear(img.At(37, 12), testutil.TopLeft, 60) {
		t.Errorf("top-right pixel = %v, want near %v", img.At(37, 12), testutil.TopLeft)
	}
}

func TestGetThumbnailUndecodable(t *testing.T) {
	env := setupTestHandlers(t)
	path := testutil.WriteFile(t, filepath.Join(env.mediaDir, "Trip"), "broken.jpg",
		append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, 64)...))
	env.index(t)

	w := getThumbnail(env.h, url.Values{"id": {env.idOf(t, path)}})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetThumbnailErrors(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "a.jpg", 40, 30, 1)
	env.index(t)
	id := env.idOf(t, path)

	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"missing id", url.Values{}, http.StatusBadRequest},
		{"malformed id", url.Values{"id": {"no-separator"}}, http.StatusBadRequest},
		{"unknown id", url.Values{"id": {"999999;" + path}}, http.StatusNotFound},
		{"path mismatch", url.Values{"id": {strings.SplitN(id, ";", 2)[0] + ";/elsewhere.jpg"}}, http.StatusNotFound},
		{"zero width", url.Values{"id": {id}, "width": {"0"}}, http.StatusBadRequest},
		{"width not a number", url.Values{"id": {id}, "width": {"wide"}}, http.StatusBadRequest},
		{"height not a number", url.Values{"id": {id}, "height": {"tall"}}, http.StatusBadRequest},
		{"quality too high", url.Values{"id": {id}, "quality": {"1.5"}}, http.StatusBadRequest},
		{"quality not a number", url.Values{"id": {id}, "quality": {"best"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getThumbnail(env.h, tt.query)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Error Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestGetThumbnailFileRemoved(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "gone.jpg", 40, 30, 1)
	env.index(t)
	id := env.idOf(t, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	w := getThumbnail(env.h, url.Values{"id": {id}})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestParseThumbnailRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		width   string
		height  string
		quality string
		want    media.ThumbnailRequest
		wantErr bool
	}{
		{"defaults", "", "", "", media.ThumbnailRequest{Width: 512, Height: 384, Quality: 0.9}, false},
		{"explicit", "64", "48", "0.5", media.ThumbnailRequest{Width: 64, Height: 48, Quality: 0.5}, false},
		{"zero quality", "64", "48", "0", media.ThumbnailRequest{Width: 64, Height: 48}, false},
		{"negative height", "64", "-1", "", media.ThumbnailRequest{}, true},
		{"negative quality", "64", "48", "-0.1", media.ThumbnailRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseThumbnailRequest(tt.width, tt.height, tt.quality)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseThumbnailRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, library.ErrInvalidRequest) {
					t.Errorf("error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseThumbnailRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// GetPhoto Tests
// =============================================================================

func TestGetPhotoPassThrough(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "upright.jpg", 64, 48, 1)
	env.index(t)

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	w := getPhoto(env.h, env.idOf(t, path))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), original) {
		t.Error("Expected the stored bytes to pass through unchanged")
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
}

func TestGetPhotoPNGPassThrough(t *testing.T) {
	env := setupTestHandlers(t)
	path := testutil.WritePNG(t, filepath.Join(env.mediaDir, "Trip"), "flat.png", testutil.QuadrantImage(32, 16))
	env.index(t)

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	w := getPhoto(env.h, env.idOf(t, path))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), original) {
		t.Error("Expected PNG bytes to pass through unchanged")
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestGetPhotoReencodesRotated(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "sideways.jpg", 64, 32, 6)
	env.index(t)

	w := getPhoto(env.h, env.idOf(t, path))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("Photo is not an image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Width != 32 || cfg.Height != 64 {
		t.Errorf("Photo size = %dx%d, want upright 32x64", cfg.Width, cfg.Height)
	}
}

func TestGetPhotoErrors(t *testing.T) {
	env := setupTestHandlers(t)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"missing id", "", http.StatusBadRequest},
		{"malformed id", "abc", http.StatusBadRequest},
		{"unknown id", "424242;/nowhere.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getPhoto(env.h, tt.id)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestRenderReleasesSlots(t *testing.T) {
	env := setupTestHandlers(t)
	path := env.addPhoto(t, "Trip", "a.jpg", 40, 30, 1)
	env.index(t)
	id := env.idOf(t, path)

	for i := 0; i < cap(env.h.renders)+2; i++ {
		if w := getThumbnail(env.h, url.Values{"id": {id}, "width": {"10"}, "height": {"10"}}); w.Code != http.StatusOK {
			t.Fatalf("render %d: status %d", i, w.Code)
		}
		if w := getPhoto(env.h, id); w.Code != http.StatusOK {
			t.Fatalf("photo %d: status %d", i, w.Code)
		}
	}
	if len(env.h.renders) != 0 {
		t.Errorf("Expected every render slot to be released, %d held", len(env.h.renders))
	}
}
