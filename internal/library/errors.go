package library

import (
	"errors"
	"fmt"
	"io/fs"

	"photo-library/internal/database"
	"photo-library/internal/media"
	"photo-library/internal/orientation"
)

var (
	// ErrNotFound means a photo reference does not resolve to a library item.
	ErrNotFound = errors.New("photo not found")

	// ErrDecode means the stored bytes are not a parseable image.
	ErrDecode = media.ErrDecode

	// ErrOrientationRead means orientation metadata could not be read.
	ErrOrientationRead = orientation.ErrUnreadable

	// ErrPermissionDenied is surfaced to callers verbatim.
	ErrPermissionDenied = errors.New("Permission Denial: This application is not allowed to access Photo data.")

	// ErrInvalidReference means a composite id could not be parsed.
	ErrInvalidReference = errors.New("invalid photo reference")

	// ErrInvalidRequest means request parameters are out of range.
	ErrInvalidRequest = errors.New("invalid request")
)

// classify maps collaborator errors onto the library's sentinels, keeping
// the original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrInvalidReference), errors.Is(err, ErrInvalidRequest):
		return err
	case errors.Is(err, database.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, media.ErrInvalidRequest):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return err
	}
}
