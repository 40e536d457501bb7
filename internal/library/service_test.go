package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"os"
	"testing"

	"photo-library/internal/media"
	"photo-library/internal/orientation"
	"photo-library/internal/testutil"

	"github.com/disintegration/imaging"
)

// seedFile returns the composite id of the indexed photo at path.
func seedFile(t *testing.T, svc *Service, path string) string {
	t.Helper()

	items, err := svc.Lookup(context.Background(), ByPath(path))
	if err != nil {
		t.Fatalf("Lookup(%s) error = %v", path, err)
	}
	if len(items) != 1 {
		t.Fatalf("Lookup(%s) returned %d items, want 1", path, len(items))
	}
	return items[0].ID
}

type fixture struct {
	svc *Service
	dir string
}

func newFixture(t *testing.T, opts ...Option) (*fixture, func(name string, img image.Image, tags testutil.EXIF) string) {
	t.Helper()

	db := setupStore(t)
	dir := t.TempDir()
	f := &fixture{svc: New(db, append([]Option{WithThumbnailer(media.NewThumbnailer(media.ImagingDecoder{}))}, opts...)...), dir: dir}

	n := 0
	add := func(name string, img image.Image, tags testutil.EXIF) string {
		t.Helper()
		path := testutil.WriteJPEG(t, dir, name, img, tags)
		rec := photo(path, n)
		n++
		rec.Width = img.Bounds().Dx()
		rec.Height = img.Bounds().Dy()
		seed(t, db, rec)
		return seedFile(t, f.svc, path)
	}
	return f, add
}

// ===== Thumbnail Tests =====

func TestThumbnail(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("a.jpg", testutil.GradientImage(400, 300), testutil.EXIF{})

	out, err := f.svc.Thumbnail(context.Background(), id, media.ThumbnailRequest{Width: 200, Height: 150, Quality: 0.9})
	if err != nil {
		t.Fatalf("Thumbnail error = %v", err)
	}
	if out == nil {
		t.Fatal("Thumbnail returned nil image")
	}
	if out.MimeType() != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", out.MimeType())
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 150 {
		t.Errorf("thumbnail = %dx%d, want 200x150", cfg.Width, cfg.Height)
	}
}

func TestThumbnailAppliesOrientation(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("r.jpg", testutil.QuadrantImage(400, 300), testutil.EXIF{Orientation: int(orientation.Rotate90)})

	out, err := f.svc.Thumbnail(context.Background(), id, media.ThumbnailRequest{Width: 150, Height: 200, Quality: 1})
	if err != nil || out == nil {
		t.Fatalf("Thumbnail = %v, %v", out, err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// A quarter turn clockwise brings bottom-left to top-left.
	if c := img.At(10, 10); !testutil.ColorNear(c, testutil.BottomLeft, 60) {
		t.Errorf("top-left = %v, want %v", c, testutil.BottomLeft)
	}
	if c := img.At(140, 10); !testutil.ColorNear(c, testutil.TopLeft, 60) {
		t.Errorf("top-right = %v, want %v", c, testutil.TopLeft)
	}
}

func TestThumbnailErrors(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("a.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})
	ref, err := ParseRef(id)
	if err != nil {
		t.Fatalf("ParseRef error = %v", err)
	}

	ok := media.ThumbnailRequest{Width: 32, Height: 24, Quality: 0.5}
	tests := []struct {
		name    string
		id      string
		req     media.ThumbnailRequest
		wantErr error
	}{
		{name: "malformed id", id: "nope", req: ok, wantErr: ErrInvalidReference},
		{name: "unknown id", id: PhotoRef{ID: ref.ID + 100, Path: ref.Path}.String(), req: ok, wantErr: ErrNotFound},
		{name: "path mismatch", id: PhotoRef{ID: ref.ID, Path: ref.Path + ".other"}.String(), req: ok, wantErr: ErrNotFound},
		{name: "zero width", id: id, req: media.ThumbnailRequest{Height: 24}, wantErr: ErrInvalidRequest},
		{name: "quality above one", id: id, req: media.ThumbnailRequest{Width: 32, Height: 24, Quality: 1.5}, wantErr: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := f.svc.Thumbnail(context.Background(), tt.id, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Thumbnail error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Error("Thumbnail returned an image alongside an error")
			}
		})
	}
}

func TestThumbnailUndecodableFile(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("broken.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})

	ref, _ := ParseRef(id)
	if err := os.WriteFile(ref.Path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	out, err := f.svc.Thumbnail(context.Background(), id, media.ThumbnailRequest{Width: 32, Height: 24, Quality: 0.5})
	if err != nil {
		t.Errorf("Thumbnail error = %v, want nil", err)
	}
	if out != nil {
		t.Error("Thumbnail of an undecodable file should be nil")
	}
}

func TestThumbnailMissingFile(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("gone.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})

	ref, _ := ParseRef(id)
	if err := os.Remove(ref.Path); err != nil {
		t.Fatalf("Remove error = %v", err)
	}

	_, err := f.svc.Thumbnail(context.Background(), id, media.ThumbnailRequest{Width: 32, Height: 24, Quality: 0.5})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Thumbnail error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, ErrOrientationRead) {
		t.Errorf("Thumbnail error = %v, want the orientation failure in its chain", err)
	}
}

func TestThumbnailPermissionDenied(t *testing.T) {
	t.Parallel()
	denied := func(path string) (orientation.Code, error) {
		return orientation.Normal, fmt.Errorf("%w: %w", orientation.ErrUnreadable, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission})
	}
	f, add := newFixture(t)
	id := add("locked.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})
	svc := New(f.svc.store, WithOrientationReader(denied))

	_, err := svc.Thumbnail(context.Background(), id, media.ThumbnailRequest{Width: 32, Height: 24, Quality: 0.5})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Thumbnail error = %v, want ErrPermissionDenied", err)
	}
	want := "Permission Denial: This application is not allowed to access Photo data."
	if ErrPermissionDenied.Error() != want {
		t.Errorf("message = %q, want %q", ErrPermissionDenied.Error(), want)
	}
}

func TestThumbnailCanceledContext(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("a.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Thumbnail(ctx, id, media.ThumbnailRequest{Width: 32, Height: 24}); !errors.Is(err, context.Canceled) {
		t.Errorf("Thumbnail error = %v, want context.Canceled", err)
	}
}

// ===== Photo Tests =====

func TestPhotoPassthrough(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("up.jpg", testutil.GradientImage(120, 80), testutil.EXIF{Orientation: 1})
	ref, _ := ParseRef(id)

	want, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}

	stream, err := f.svc.Photo(context.Background(), id)
	if err != nil {
		t.Fatalf("Photo error = %v", err)
	}
	defer stream.Close()

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("photo with normal orientation should be returned byte-identical")
	}
	if stream.MimeType != "image/jpeg" || stream.Size != int64(len(want)) {
		t.Errorf("stream = {%q, %d}, want {image/jpeg, %d}", stream.MimeType, stream.Size, len(want))
	}
}

func TestPhotoBytesReencodesRotated(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	src := testutil.QuadrantImage(120, 80)
	id := add("down.jpg", src, testutil.EXIF{Orientation: int(orientation.Rotate180)})

	out, err := f.svc.PhotoBytes(context.Background(), id)
	if err != nil {
		t.Fatalf("PhotoBytes error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("photo = %dx%d, want 120x80", b.Dx(), b.Dy())
	}

	want := imaging.Rotate180(src)
	for _, p := range []image.Point{{10, 10}, {110, 10}, {10, 70}, {110, 70}} {
		if !testutil.ColorNear(img.At(p.X, p.Y), want.At(p.X, p.Y), 40) {
			t.Errorf("pixel %v = %v, want %v", p, img.At(p.X, p.Y), want.At(p.X, p.Y))
		}
	}
}

func TestPhotoErrors(t *testing.T) {
	t.Parallel()
	f, add := newFixture(t)
	id := add("a.jpg", testutil.GradientImage(64, 48), testutil.EXIF{})
	ref, _ := ParseRef(id)

	if _, err := f.svc.Photo(context.Background(), "x;"); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("malformed id error = %v, want ErrInvalidReference", err)
	}
	if _, err := f.svc.Photo(context.Background(), PhotoRef{ID: ref.ID, Path: "/elsewhere.jpg"}.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("path mismatch error = %v, want ErrNotFound", err)
	}
	if err := os.Remove(ref.Path); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if _, err := f.svc.PhotoBytes(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}

// ===== Album Tests =====

func TestAlbums(t *testing.T) {
	t.Parallel()
	db := setupStore(t)
	other := photo("/media/b/x.jpg", 0)
	other.BucketID = 3
	other.BucketName = "Beach"
	seed(t, db, photo("/media/a/1.jpg", 1), photo("/media/a/2.jpg", 2), other)

	albums, err := New(db).Albums(context.Background())
	if err != nil {
		t.Fatalf("Albums error = %v", err)
	}
	want := []Album{{ID: "3", Title: "Beach"}, {ID: "7", Title: "Camera"}}
	if len(albums) != len(want) {
		t.Fatalf("albums = %+v, want %+v", albums, want)
	}
	for i := range want {
		if albums[i] != want[i] {
			t.Errorf("album %d = %+v, want %+v", i, albums[i], want[i])
		}
	}
}

// ===== Error Classification Tests =====

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not exist", err: &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, want: ErrNotFound},
		{name: "permission", err: &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, want: ErrPermissionDenied},
		{name: "bad request", err: fmt.Errorf("wrapped: %w", media.ErrInvalidRequest), want: ErrInvalidRequest},
		{name: "decode", err: media.ErrDecode, want: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classify(%v) dropped the original error", tt.err)
			}
		})
	}

	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
