package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"photo-library/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// largest shrink-on-load factor libjpeg supports
const maxJpegShrink = 8

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging before Startup() so LOG_LEVEL applies to it
	vipsLogLevel, logHandler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(logHandler, vipsLogLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// vipsLogging maps the application log level onto libvips messages.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(min vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, l vips.LogLevel, msg string) {
			if l > min {
				return
			}
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelDebug)
	case logging.LevelWarn:
		return vips.LogLevelError, forward(vips.LogLevelError)
	case logging.LevelError:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	default:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	}
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsDecoder decodes with libvips. JPEG files are shrunk while decoding, so
// peak memory follows the reduced size rather than the stored size.
type VipsDecoder struct{}

// Name identifies the decoder in metrics.
func (VipsDecoder) Name() string { return "vips" }

// Decode implements Decoder.
func (VipsDecoder) Decode(path string, factor int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}
	if factor < 1 {
		factor = 1
	}

	shrink := factor
	if shrink > maxJpegShrink {
		shrink = maxJpegShrink
	}

	params := vips.NewImportParams()
	params.AutoRotate.Set(false)
	params.JpegShrinkFactor.Set(shrink)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, decodeError(path, err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s at shrink %d: %dx%d", filepath.Base(path), shrink, ref.Width(), ref.Height())

	// PNG keeps the pixels lossless on the way back into Go
	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, decodeError(path, fmt.Errorf("vips export failed: %w", err))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(path, err)
	}

	// Non-JPEG formats ignore the shrink hint and factors above 8 need a
	// second pass; either way finish the reduction here.
	applied := 1
	if ref.Format() == vips.ImageTypeJPEG {
		applied = shrink
	}
	return downsample(img, factor/applied), nil
}
