package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"path/filepath"
	"testing"

	"photo-library/internal/orientation"
	"photo-library/internal/testutil"

	"github.com/disintegration/imaging"
)

// meanDiff returns the mean absolute per-channel difference of two
// equally sized images.
func meanDiff(t *testing.T, a, b image.Image) float64 {
	t.Helper()

	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		t.Fatalf("size mismatch: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	var sum float64
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y)).(color.NRGBA)
			cb := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y)).(color.NRGBA)
			for _, d := range []int{int(ca.R) - int(cb.R), int(ca.G) - int(cb.G), int(ca.B) - int(cb.B)} {
				if d < 0 {
					d = -d
				}
				sum += float64(d)
			}
		}
	}
	return sum / float64(ab.Dx()*ab.Dy()*3)
}

func decodeRendered(t *testing.T, r *RenderedImage) image.Image {
	t.Helper()

	if r == nil {
		t.Fatal("rendered image is nil")
	}
	if r.MimeType() != "image/jpeg" {
		t.Errorf("MimeType() = %q, want image/jpeg", r.MimeType())
	}
	img, err := imaging.Decode(bytes.NewReader(r.Bytes()))
	if err != nil {
		t.Fatalf("rendered bytes do not decode: %v", err)
	}
	return img
}

func assertColorAt(t *testing.T, img image.Image, x, y int, want color.Color, label string) {
	t.Helper()

	got := img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
	if !testutil.ColorNear(got, want, 60) {
		t.Errorf("%s: pixel (%d,%d) = %v, want near %v", label, x, y, got, want)
	}
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRenderMatchesScaledReference(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := testutil.GradientImage(1024, 768)
	path := testutil.WriteJPEG(t, dir, "flat.jpg", src, testutil.EXIF{})

	th := NewThumbnailer(ImagingDecoder{}).WithoutEmbedded()
	out, err := th.Render(path, orientation.Normal, ThumbnailRequest{Width: 512, Height: 384, Quality: 1.0})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := decodeRendered(t, out)

	stored, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen fixture: %v", err)
	}
	want := imaging.Fill(stored, 512, 384, imaging.Center, imaging.Lanczos)

	if d := meanDiff(t, got, want); d > 4 {
		t.Errorf("mean channel difference from reference = %.2f, want <= 4", d)
	}
}

func TestRenderAppliesOrientation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteJPEG(t, dir, "rotated.jpg", testutil.QuadrantImage(400, 200), testutil.EXIF{Orientation: 6})

	th := NewThumbnailer(ImagingDecoder{})
	out, err := th.Render(path, orientation.Rotate90, ThumbnailRequest{Width: 100, Height: 200, Quality: 0.9})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img := decodeRendered(t, out)

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 200 {
		t.Fatalf("thumbnail is %dx%d, want 100x200", b.Dx(), b.Dy())
	}

	// A quarter turn clockwise moves the stored bottom-left corner to the top-left.
	assertColorAt(t, img, 10, 10, testutil.BottomLeft, "top-left")
	assertColorAt(t, img, 90, 10, testutil.TopLeft, "top-right")
	assertColorAt(t, img, 10, 190, testutil.BottomRight, "bottom-left")
	assertColorAt(t, img, 90, 190, testutil.TopRight, "bottom-right")
}

func TestRenderCentreCropsToTargetAspect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A square crop of a 4:1 image keeps the middle quarter of its width.
	path := testutil.WriteJPEG(t, dir, "wide.jpg", testutil.QuadrantImage(800, 200), testutil.EXIF{})

	out, err := NewThumbnailer(ImagingDecoder{}).Render(path, orientation.Normal, ThumbnailRequest{Width: 100, Height: 100, Quality: 0.9})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img := decodeRendered(t, out)

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("thumbnail is %dx%d, want 100x100", b.Dx(), b.Dy())
	}
	assertColorAt(t, img, 10, 10, testutil.TopLeft, "top-left")
	assertColorAt(t, img, 90, 90, testutil.BottomRight, "bottom-right")
}

func TestRenderQualityAffectsSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteJPEG(t, dir, "q.jpg", testutil.GradientImage(800, 600), testutil.EXIF{})
	th := NewThumbnailer(ImagingDecoder{})

	low, err := th.Render(path, orientation.Normal, ThumbnailRequest{Width: 400, Height: 300, Quality: 0.05})
	if err != nil {
		t.Fatalf("Render(low) failed: %v", err)
	}
	high, err := th.Render(path, orientation.Normal, ThumbnailRequest{Width: 400, Height: 300, Quality: 1.0})
	if err != nil {
		t.Fatalf("Render(high) failed: %v", err)
	}
	if low.Len() >= high.Len() {
		t.Errorf("low quality size %d should be below high quality size %d", low.Len(), high.Len())
	}
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := testutil.WriteJPEG(t, dir, "good.jpg", testutil.GradientImage(64, 64), testutil.EXIF{})
	corrupt := testutil.WriteFile(t, dir, "corrupt.jpg", []byte("definitely not a jpeg"))
	th := NewThumbnailer(ImagingDecoder{})

	tests := []struct {
		name string
		path string
		req  ThumbnailRequest
		want error
	}{
		{name: "corrupt file", path: corrupt, req: ThumbnailRequest{Width: 10, Height: 10, Quality: 0.5}, want: ErrDecode},
		{name: "missing file", path: filepath.Join(dir, "missing.jpg"), req: ThumbnailRequest{Width: 10, Height: 10, Quality: 0.5}, want: fs.ErrNotExist},
		{name: "zero width", path: good, req: ThumbnailRequest{Width: 0, Height: 10, Quality: 0.5}, want: ErrInvalidRequest},
		{name: "quality above one", path: good, req: ThumbnailRequest{Width: 10, Height: 10, Quality: 1.5}, want: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := th.Render(tt.path, orientation.Normal, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
			if out != nil {
				t.Error("Render() should not return an image on error")
			}
		})
	}
}

func TestJPEGQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quality float64
		want    int
	}{
		{0, 1},
		{0.005, 1},
		{0.29, 29},
		{0.5, 50},
		{0.85, 85},
		{1, 100},
	}

	for _, tt := range tests {
		if got := (ThumbnailRequest{Quality: tt.quality}).JPEGQuality(); got != tt.want {
			t.Errorf("JPEGQuality(%v) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}

// =============================================================================
// Embedded Thumbnail Tests
// =============================================================================

func TestRenderStandardSizeFromEmbeddedThumbnail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		thumb   image.Image
		topLeft color.Color
	}{
		{
			// Stored like the full image, so it still needs the quarter turn.
			name:    "embedded thumbnail stored unrotated",
			thumb:   testutil.QuadrantImage(768, 576),
			topLeft: testutil.BottomLeft,
		},
		{
			name:    "embedded thumbnail already upright",
			thumb:   testutil.QuadrantImage(576, 768),
			topLeft: testutil.TopLeft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := testutil.WriteJPEG(t, dir, "camera.jpg", testutil.GradientImage(2048, 1536), testutil.EXIF{
				Orientation: 6,
				Thumbnail:   testutil.EncodeJPEG(t, tt.thumb, 75, testutil.EXIF{}),
			})

			out, err := NewThumbnailer(ImagingDecoder{}).Render(path, orientation.Rotate90, StandardThumbnail)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			img := decodeRendered(t, out)

			if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 384 {
				t.Fatalf("thumbnail is %dx%d, want 512x384", b.Dx(), b.Dy())
			}
			assertColorAt(t, img, 20, 20, tt.topLeft, "top-left")
		})
	}
}

func TestRenderFallsBackWhenEmbeddedThumbnailTooSmall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteJPEG(t, dir, "camera.jpg", testutil.GradientImage(1024, 768), testutil.EXIF{
		Orientation: 1,
		Thumbnail:   testutil.EncodeJPEG(t, testutil.QuadrantImage(160, 120), 75, testutil.EXIF{}),
	})

	out, err := NewThumbnailer(ImagingDecoder{}).Render(path, orientation.Normal, StandardThumbnail)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img := decodeRendered(t, out)

	// The gradient fixture has a constant blue channel; the quadrants do not.
	c := color.NRGBAModel.Convert(img.At(20, 20)).(color.NRGBA)
	if c.B < 100 || c.B > 156 {
		t.Errorf("pixel (20,20) = %v, expected the decoded gradient (blue ~128)", c)
	}
}
