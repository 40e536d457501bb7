package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"photo-library/internal/library"
)

// maxImportBody bounds import request bodies; data: URLs carry the whole file.
const maxImportBody = 64 << 20

// SaveRequest names media to import into an album.
type SaveRequest struct {
	URL   string `json:"url"`
	Album string `json:"album"`
}

// AddRequest names an existing file to move into an album.
type AddRequest struct {
	Path  string `json:"path"`
	Album string `json:"album"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", library.ErrInvalidRequest, err)
	}
	return nil
}

// localSource returns the host path a file:// or absolute plain source names.
// It reports false for data: and http(s) sources and for anything the
// importer will reject on its own.
func localSource(raw string) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "data:"), strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return "", false
	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		return u.Path, filepath.IsAbs(u.Path)
	default:
		return raw, filepath.IsAbs(raw)
	}
}

// checkSource confines local import sources to the media directory.
func (h *Handlers) checkSource(raw string) error {
	if src, ok := localSource(raw); ok && !isSubPath(h.mediaDir, src) {
		return fmt.Errorf("%w: source is outside the library", library.ErrInvalidRequest)
	}
	return nil
}

// SaveImage imports the image at the request's URL and returns its library
// item, or null when the saved file could not be found in the library.
func (h *Handlers) SaveImage(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.checkSource(req.URL); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.importer.SaveImage(r.Context(), req.URL, req.Album)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, item)
}

// SaveVideo imports the video at the request's URL and returns its path
// relative to the media directory.
func (h *Handlers) SaveVideo(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.checkSource(req.URL); err != nil {
		writeError(w, r, err)
		return
	}

	target, err := h.importer.SaveVideo(r.Context(), req.URL, req.Album)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rel, err := filepath.Rel(h.mediaDir, target)
	if err != nil {
		rel = filepath.Base(target)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"path": filepath.ToSlash(rel)})
}

// AddImageToAlbum moves a file below the media directory into an album.
// Relative paths are resolved against the media directory.
func (h *Handlers) AddImageToAlbum(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	src := req.Path
	if src == "" {
		writeError(w, r, fmt.Errorf("%w: path is required", library.ErrInvalidRequest))
		return
	}
	if !filepath.IsAbs(src) {
		src = filepath.Join(h.mediaDir, src)
	}
	if !isSubPath(h.mediaDir, src) {
		writeError(w, r, fmt.Errorf("%w: path is outside the library", library.ErrInvalidRequest))
		return
	}

	item, err := h.importer.AddImageToAlbum(r.Context(), src, req.Album)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, item)
}
