package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"photo-library/internal/library"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/streaming"
)

// defaultThumbnailQuality applies when the request names no quality.
const defaultThumbnailQuality = 0.9

// GetThumbnail renders a thumbnail of the photo named by the id parameter.
// A file that holds no decodable image yields 422.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	id := query.Get("id")
	if id == "" {
		writeError(w, r, fmt.Errorf("%w: id is required", library.ErrInvalidReference))
		return
	}

	req, err := parseThumbnailRequest(query.Get("width"), query.Get("height"), query.Get("quality"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	release, err := h.acquireRender(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	thumb, err := h.library.Thumbnail(r.Context(), id, req)
	release()

	if err != nil {
		writeError(w, r, err)
		return
	}
	if thumb == nil {
		writeError(w, r, library.ErrDecode)
		return
	}

	w.Header().Set("Content-Type", thumb.MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(thumb.Len()))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(thumb.Bytes()); err != nil {
		logging.Debug("Thumbnail write for %s failed: %v", id, err)
	}
}

func parseThumbnailRequest(width, height, quality string) (media.ThumbnailRequest, error) {
	req := media.StandardThumbnail
	req.Quality = defaultThumbnailQuality

	if width != "" {
		n, err := strconv.Atoi(width)
		if err != nil {
			return req, fmt.Errorf("%w: width must be an integer", library.ErrInvalidRequest)
		}
		req.Width = n
	}
	if height != "" {
		n, err := strconv.Atoi(height)
		if err != nil {
			return req, fmt.Errorf("%w: height must be an integer", library.ErrInvalidRequest)
		}
		req.Height = n
	}
	if quality != "" {
		q, err := strconv.ParseFloat(quality, 64)
		if err != nil {
			return req, fmt.Errorf("%w: quality must be a number", library.ErrInvalidRequest)
		}
		req.Quality = q
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", library.ErrInvalidRequest, err)
	}
	return req, nil
}

// GetPhoto streams the full photo named by the id parameter, upright.
// Photos needing rotation are re-encoded under a render slot; the rest pass
// through byte for byte.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, fmt.Errorf("%w: id is required", library.ErrInvalidReference))
		return
	}

	release, err := h.acquireRender(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	photo, err := h.library.Photo(r.Context(), id)
	release()

	if err != nil {
		writeError(w, r, err)
		return
	}
	defer photo.Close()

	w.Header().Set("Content-Type", photo.MimeType)
	if photo.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(photo.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")

	written, err := streaming.Copy(r.Context(), w, photo, h.stream)
	if err != nil {
		if errors.Is(err, streaming.ErrClientGone) {
			logging.Debug("Photo stream for %s canceled after %d bytes", id, written)
		} else {
			logging.Warn("Photo stream for %s failed after %d bytes: %v", id, written, err)
		}
	}
}
