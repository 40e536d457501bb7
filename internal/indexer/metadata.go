package indexer

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/mediatypes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
)

// errNotImage marks files the indexer ignores.
var errNotImage = errors.New("not an image")

// isCandidate reports whether name looks like an indexable image.
func isCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return mediatypes.GetFileType(strings.ToLower(filepath.Ext(name))) == mediatypes.FileTypeImage
}

// BucketID returns the album id of the directory dir.
func BucketID(dir string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(filepath.Clean(dir)))
	return int64(h.Sum32())
}

// extract builds the metadata record of the image at path. Files whose
// content is not an image return errNotImage.
func extract(path string, info os.FileInfo) (*database.Image, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is %s", errNotImage, path, mtype.String())
	}

	dir := filepath.Dir(path)
	img := &database.Image{
		DisplayName: info.Name(),
		Path:        path,
		MimeType:    mtype.String(),
		BucketID:    BucketID(dir),
		BucketName:  filepath.Base(dir),
		DateTaken:   info.ModTime(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}

	// Undecodable images stay indexed with unknown dimensions.
	if b, _, err := media.ReadBounds(path); err == nil {
		img.Width, img.Height = b.Width, b.Height
	} else {
		logging.Debug("no dimensions for %s: %v", path, err)
	}

	readExif(path, img)
	return img, nil
}

// readExif fills the capture date and location from EXIF when present.
func readExif(path string, img *database.Image) {
	f, err := filesystem.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return
	}

	if taken, err := x.DateTime(); err == nil && !taken.IsZero() {
		img.DateTaken = taken
	}
	if lat, lon, err := x.LatLong(); err == nil {
		img.Latitude = &lat
		img.Longitude = &lon
	}
}

// statImage stats path and extracts its metadata.
func statImage(path string) (*database.Image, error) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	if info.IsDir() || !isCandidate(info.Name()) {
		return nil, fmt.Errorf("%w: %s", errNotImage, path)
	}
	return extract(path, info)
}
