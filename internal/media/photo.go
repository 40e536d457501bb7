package media

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/mediatypes"
	"photo-library/internal/metrics"
	"photo-library/internal/orientation"
)

// OpenPhoto returns the full image stored at path. A lossy raster with a
// non-identity orientation is decoded, corrected and re-encoded at maximum
// quality; everything else streams the stored bytes unchanged.
func OpenPhoto(path, mimeType string, code orientation.Code) (*StreamedImage, error) {
	if mediatypes.IsLossyRaster(mimeType) && !code.Transform().IsIdentity() {
		img, err := reencode(path, mimeType, code)
		if err != nil {
			metrics.PhotoRetrievalsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.PhotoRetrievalsTotal.WithLabelValues("reencoded").Inc()
		return &StreamedImage{
			ReadCloser: io.NopCloser(bytes.NewReader(img.Bytes())),
			MimeType:   img.MimeType(),
			Size:       int64(img.Len()),
		}, nil
	}

	f, err := filesystem.Open(path)
	if err != nil {
		metrics.PhotoRetrievalsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	metrics.PhotoRetrievalsTotal.WithLabelValues("passthrough").Inc()
	return &StreamedImage{ReadCloser: f, MimeType: mimeType, Size: size}, nil
}

// ReadPhoto is OpenPhoto drained into memory.
func ReadPhoto(path, mimeType string, code orientation.Code) (*RenderedImage, error) {
	s, err := OpenPhoto(path, mimeType, code)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Warn("failed to close photo stream %s: %v", path, err)
		}
	}()

	var buf bytes.Buffer
	if s.Size > 0 {
		buf.Grow(int(s.Size))
	}
	if _, err := io.Copy(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", path, err)
	}
	return NewRenderedImage(buf.Bytes(), s.MimeType), nil
}

func reencode(path, mimeType string, code orientation.Code) (*RenderedImage, error) {
	img, err := ImagingDecoder{}.Decode(path, 1)
	if err != nil {
		return nil, err
	}
	recordDecode("jpeg", ImagingDecoder{})

	corrected := orientation.Apply(img, code)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, corrected, &jpeg.Options{Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode photo %s: %w", path, err)
	}

	logging.Debug("Re-encoded %s for orientation %s", path, code)
	return NewRenderedImage(buf.Bytes(), mimeType), nil
}

