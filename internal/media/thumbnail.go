package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
	"photo-library/internal/orientation"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Thumbnailer renders size-bounded, orientation-corrected JPEG thumbnails.
// It holds no per-request state and is safe for concurrent use.
type Thumbnailer struct {
	decoder  Decoder
	embedded bool
}

// NewThumbnailer returns a Thumbnailer using d, or DefaultDecoder when d is nil.
func NewThumbnailer(d Decoder) *Thumbnailer {
	if d == nil {
		d = DefaultDecoder()
	}
	return &Thumbnailer{decoder: d, embedded: true}
}

// WithoutEmbedded disables serving standard-size requests from the EXIF
// thumbnail.
func (t *Thumbnailer) WithoutEmbedded() *Thumbnailer {
	c := *t
	c.embedded = false
	return &c
}

// Render produces a req.Width x req.Height JPEG of the image at path,
// corrected for code and center-cropped to the target aspect. Errors wrapping
// ErrDecode mean the file holds no decodable image; other errors are I/O
// failures.
func (t *Thumbnailer) Render(path string, code orientation.Code, req ThumbnailRequest) (*RenderedImage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	source := "decode"
	status := "success"
	defer func() {
		metrics.ThumbnailRendersTotal.WithLabelValues(source, status).Inc()
		metrics.ThumbnailRenderDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	native, format, err := ReadBounds(path)
	if err != nil {
		status = "error"
		return nil, err
	}

	var img image.Image
	if t.embedded && req.Width == StandardThumbnail.Width && req.Height == StandardThumbnail.Height {
		img = embeddedThumbnail(path, native, code, req)
		if img != nil {
			source = "embedded"
		}
	}

	if img == nil {
		// Subsample against the target as it lies in the stored orientation.
		tw, th := req.Width, req.Height
		if code.SwapsDimensions() {
			tw, th = th, tw
		}
		s := SubsampleFactor(native.Width, native.Height, tw, th)
		metrics.ThumbnailSubsampleFactor.Observe(float64(s))

		decoded, err := t.decoder.Decode(path, s)
		if err != nil {
			status = "error"
			return nil, err
		}
		recordDecode(format, t.decoder)

		logging.Debug("Thumbnail %s: %dx%d decoded at 1/%d to %dx%d", path,
			native.Width, native.Height, s, decoded.Bounds().Dx(), decoded.Bounds().Dy())

		img = orientation.Apply(decoded, code)
	}

	thumb := imaging.Fill(img, req.Width, req.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: req.JPEGQuality()}); err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return NewRenderedImage(buf.Bytes(), "image/jpeg"), nil
}

// embeddedThumbnail returns the EXIF thumbnail of the file at path in display
// orientation, or nil when there is none or it is too small for req. Cameras
// disagree on whether the embedded thumbnail is stored rotated, so the result
// is checked against the display aspect of the full image.
func embeddedThumbnail(path string, native Bounds, code orientation.Code, req ThumbnailRequest) image.Image {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil
	}
	data, err := x.JpegThumbnail()
	if err != nil {
		return nil
	}
	thumb, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debug("Embedded thumbnail of %s is not decodable: %v", path, err)
		return nil
	}

	displayW, displayH := code.Dimensions(native.Width, native.Height)
	img := orientation.Apply(thumb, code)
	if !sameAspect(img.Bounds(), displayW, displayH) {
		if !code.SwapsDimensions() || !sameAspect(thumb.Bounds(), displayW, displayH) {
			return nil
		}
		// Already stored upright.
		img = thumb
	}

	b := img.Bounds()
	if b.Dx() < req.Width || b.Dy() < req.Height {
		return nil
	}
	return img
}

// sameAspect reports whether r has the same landscape/portrait shape as w x h.
func sameAspect(r image.Rectangle, w, h int) bool {
	if r.Dx() == r.Dy() || w == h {
		return true
	}
	return (r.Dx() > r.Dy()) == (w > h)
}
