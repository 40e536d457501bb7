package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"

	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// Bounds is the stored pixel size of an image.
type Bounds struct {
	Width  int
	Height int
}

// ReadBounds returns the image size and format of the file at path without
// decoding pixel data.
func ReadBounds(path string) (Bounds, string, error) {
	file, err := filesystem.Open(path)
	if err != nil {
		return Bounds{}, "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	b, format, err := DecodeBounds(file)
	if err != nil {
		return Bounds{}, "", decodeError(path, err)
	}
	return b, format, nil
}

// DecodeBounds reads only the image header from r.
func DecodeBounds(r io.Reader) (Bounds, string, error) {
	config, format, err := image.DecodeConfig(r)
	if err != nil {
		return Bounds{}, "", err
	}
	if config.Width <= 0 || config.Height <= 0 {
		return Bounds{}, "", fmt.Errorf("invalid image size %dx%d", config.Width, config.Height)
	}
	return Bounds{Width: config.Width, Height: config.Height}, format, nil
}

// SubsampleFactor returns the largest power of two s such that an image of
// width x height decoded at 1/s still covers targetWidth x targetHeight.
// It returns 1 when the image already fits inside the target.
func SubsampleFactor(width, height, targetWidth, targetHeight int) int {
	s := 1
	if targetWidth <= 0 || targetHeight <= 0 {
		return s
	}
	if height > targetHeight || width > targetWidth {
		halfHeight := height / 2
		halfWidth := width / 2
		for halfHeight/s >= targetHeight && halfWidth/s >= targetWidth {
			s *= 2
		}
	}
	return s
}

// Decoder decodes an image file at a reduced scale. The returned image is
// never smaller than width/factor x height/factor of the stored image, and is
// not orientation corrected.
type Decoder interface {
	Decode(path string, factor int) (image.Image, error)
	Name() string
}

// DefaultDecoder returns the libvips decoder when libvips is initialised and
// the pure Go decoder otherwise.
func DefaultDecoder() Decoder {
	if IsVipsAvailable() {
		return VipsDecoder{}
	}
	return ImagingDecoder{}
}

// ImagingDecoder decodes with the standard image decoders and downsamples
// afterwards. Peak memory is that of the full-size image.
type ImagingDecoder struct{}

// Name identifies the decoder in metrics.
func (ImagingDecoder) Name() string { return "imaging" }

// Decode implements Decoder.
func (d ImagingDecoder) Decode(path string, factor int) (image.Image, error) {
	file, err := filesystem.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, err
		}
		return nil, decodeError(path, err)
	}

	return downsample(img, factor), nil
}

// downsample shrinks img by factor with a box filter, which is what a
// scaled decode produces.
func downsample(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx()/factor, b.Dy()/factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Box)
}

func recordDecode(format string, d Decoder) {
	metrics.ImageDecodeByFormat.WithLabelValues(format, d.Name()).Inc()
}
