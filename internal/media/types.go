package media

import (
	"io"
)

// RenderedImage is an encoded image held in memory. It is produced once and
// never modified; callers must not mutate the slice returned by Bytes.
type RenderedImage struct {
	data     []byte
	mimeType string
}

// NewRenderedImage wraps data. The caller gives up ownership of data.
func NewRenderedImage(data []byte, mimeType string) *RenderedImage {
	return &RenderedImage{data: data, mimeType: mimeType}
}

// Bytes returns the encoded image.
func (r *RenderedImage) Bytes() []byte { return r.data }

// MimeType returns the MIME type of the encoding.
func (r *RenderedImage) MimeType() string { return r.mimeType }

// Len returns the encoded size in bytes.
func (r *RenderedImage) Len() int { return len(r.data) }

// StreamedImage is an encoded image read from a stream. The caller owns the
// stream and must close it.
type StreamedImage struct {
	io.ReadCloser
	MimeType string
	// Size is the stream length in bytes, or -1 when unknown.
	Size int64
}

// ThumbnailRequest describes the thumbnail to render.
type ThumbnailRequest struct {
	Width   int
	Height  int
	Quality float64 // 0.0 to 1.0
}

// StandardThumbnail is the historical device thumbnail size that may be served
// from an image's embedded EXIF thumbnail.
var StandardThumbnail = ThumbnailRequest{Width: 512, Height: 384}

// Validate checks the request bounds.
func (r ThumbnailRequest) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return errorf("thumbnail size must be positive, got %dx%d", r.Width, r.Height)
	}
	if r.Quality < 0 || r.Quality > 1 {
		return errorf("thumbnail quality must be between 0 and 1, got %v", r.Quality)
	}
	return nil
}

// JPEGQuality maps the 0..1 quality factor onto the encoder's 1..100 scale.
func (r ThumbnailRequest) JPEGQuality() int {
	q := int(r.Quality*100 + 0.5)
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
