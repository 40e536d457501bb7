package orientation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrUnreadable means the file holding the orientation could not be read.
// A file without EXIF data or without an orientation tag is not an error;
// it reads as Normal.
var ErrUnreadable = errors.New("orientation metadata unreadable")

// Read returns the orientation stored in the file at path.
func Read(path string) (Code, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return Normal, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode returns the orientation from the EXIF block in r.
func Decode(r io.Reader) (Code, error) {
	x, err := exif.Decode(r)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return Normal, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		if x == nil || exif.IsCriticalError(err) {
			// No EXIF block, or one we cannot parse: nothing to correct.
			return Normal, nil
		}
	}

	return fromExif(x), nil
}

func fromExif(x *exif.Exif) Code {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Normal
	}

	v, err := tag.Int(0)
	if err != nil {
		logging.Debug("orientation tag has unexpected format: %v", err)
		return Normal
	}

	return Code(v)
}
