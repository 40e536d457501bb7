package media

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode means the bytes are not a parseable image.
	ErrDecode = errors.New("image decode failed")

	// ErrInvalidRequest means the render parameters are out of range.
	ErrInvalidRequest = errors.New("invalid render request")
)

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func decodeError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
}
