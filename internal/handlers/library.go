package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"photo-library/internal/library"
	"photo-library/internal/logging"
	"photo-library/internal/streaming"
)

// StreamLibrary writes the library as NDJSON, one chunk per line, flushing
// after every chunk. The request context cancels the enumeration.
func (h *Handlers) StreamLibrary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	policy, err := h.parsePolicy(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := library.Filter{}
	if album := query.Get("album"); album != "" {
		filter = library.ByAlbum(album)
	}

	ctx := r.Context()
	start := time.Now()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	sw := streaming.NewWriter(ctx, w, h.stream)
	defer sw.Close()
	enc := json.NewEncoder(sw)

	chunks, items := 0, 0
	for chunk, err := range h.library.Enumerate(ctx, policy, filter) {
		if err != nil {
			if chunks == 0 {
				writeError(w, r, err)
				return
			}
			logging.Warn("Library stream ended after %d chunks: %v", chunks, err)
			return
		}

		if err := enc.Encode(chunk); err != nil {
			if !errors.Is(err, streaming.ErrClientGone) {
				logging.Warn("Library stream write failed after %d chunks: %v", chunks, err)
			}
			return
		}
		sw.Flush()

		chunks++
		items += len(chunk.Items)
	}

	logging.Debug("Library stream: %d items in %d chunks (%v)", items, chunks, time.Since(start))
}

// parsePolicy overlays the request's chunking parameters on the defaults.
func (h *Handlers) parsePolicy(query url.Values) (library.ChunkingPolicy, error) {
	policy := h.policy

	if v := query.Get("itemsPerChunk"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return policy, fmt.Errorf("%w: itemsPerChunk must be a non-negative integer", library.ErrInvalidRequest)
		}
		policy.ItemsPerChunk = n
	}

	if v := query.Get("chunkSeconds"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return policy, fmt.Errorf("%w: chunkSeconds must be a non-negative number", library.ErrInvalidRequest)
		}
		policy.MaxChunkDuration = time.Duration(secs * float64(time.Second))
	}

	if v := query.Get("includeAlbums"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return policy, fmt.Errorf("%w: includeAlbums must be a boolean", library.ErrInvalidRequest)
		}
		policy.IncludeAlbumData = include
	}

	return policy, nil
}

// GetAlbums lists the library's albums.
func (h *Handlers) GetAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.library.Albums(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, albums)
}

// TriggerReindex starts a full re-index in the background.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsIndexing() {
		writeJSONStatus(w, http.StatusOK, "already_running", "Indexing is already in progress")
		return
	}

	h.indexer.TriggerIndex()
	writeJSONStatus(w, http.StatusAccepted, "started", "Re-indexing started")
}
