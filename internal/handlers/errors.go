package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"photo-library/internal/importer"
	"photo-library/internal/library"
	"photo-library/internal/logging"
	"photo-library/internal/memory"
)

// errorResponse maps an error onto the status and message sent to clients.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, library.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "Photo not found"
	case errors.Is(err, library.ErrPermissionDenied):
		return http.StatusForbidden, library.ErrPermissionDenied.Error()
	case errors.Is(err, library.ErrInvalidReference),
		errors.Is(err, library.ErrInvalidRequest),
		errors.Is(err, importer.ErrInvalidURL),
		errors.Is(err, importer.ErrInvalidAlbum),
		errors.Is(err, importer.ErrUnsupportedMedia):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, library.ErrDecode):
		return http.StatusUnprocessableEntity, "Image could not be decoded"
	case errors.Is(err, memory.ErrStopped):
		return http.StatusServiceUnavailable, "Server is shutting down"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs err and sends its mapped status. Nothing is written once
// the client has gone away.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		logging.Debug("%s %s: client went away", r.Method, r.URL.Path)
		return
	}

	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logging.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSONError(w, message, status)
}
