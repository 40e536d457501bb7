package library

import (
	"context"
	"errors"
	"strconv"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/orientation"
)

// Store is the metadata source the library reads from.
type Store interface {
	Query(ctx context.Context, q database.Query) (*database.Rows, error)
	ImageByID(ctx context.Context, id int64) (*database.Image, error)
	MimeType(ctx context.Context, id int64) (string, error)
	Albums(ctx context.Context) ([]database.Bucket, error)
}

// Service enumerates and renders library photos. It holds no mutable state;
// one instance can serve any number of concurrent calls.
type Service struct {
	store           Store
	thumbnailer     *media.Thumbnailer
	now             func() time.Time
	readOrientation func(path string) (orientation.Code, error)
	log             logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock used for time-based chunk flushing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithThumbnailer replaces the default thumbnail renderer.
func WithThumbnailer(t *media.Thumbnailer) Option {
	return func(s *Service) { s.thumbnailer = t }
}

// WithOrientationReader replaces how orientation is read from a file.
func WithOrientationReader(read func(path string) (orientation.Code, error)) Option {
	return func(s *Service) { s.readOrientation = read }
}

// New returns a Service reading from store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		now:             time.Now,
		readOrientation: orientation.Read,
		log:             logging.With("library"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.thumbnailer == nil {
		s.thumbnailer = media.NewThumbnailer(nil)
	}
	return s
}

// Albums lists one album per distinct bucket.
func (s *Service) Albums(ctx context.Context) ([]Album, error) {
	buckets, err := s.store.Albums(ctx)
	if err != nil {
		return nil, classify(err)
	}

	albums := make([]Album, 0, len(buckets))
	for _, b := range buckets {
		albums = append(albums, Album{ID: strconv.FormatInt(b.ID, 10), Title: b.Name})
	}
	return albums, nil
}

// Thumbnail renders a thumbnail of the photo with composite id photoID. A nil
// image with a nil error means the file holds no decodable image.
func (s *Service) Thumbnail(ctx context.Context, photoID string, req media.ThumbnailRequest) (*media.RenderedImage, error) {
	img, code, err := s.open(ctx, photoID, "thumbnail")
	if err != nil {
		return nil, err
	}

	out, err := s.thumbnailer.Render(img.Path, code, req)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			s.log.Debug("no thumbnail for %s: %v", img.Path, err)
			return nil, nil
		}
		return nil, classify(err)
	}
	return out, nil
}

// Photo streams the full photo with composite id photoID. The caller must
// close the returned stream.
func (s *Service) Photo(ctx context.Context, photoID string) (*media.StreamedImage, error) {
	img, mimeType, code, err := s.photoSource(ctx, photoID)
	if err != nil {
		return nil, err
	}

	out, err := media.OpenPhoto(img.Path, mimeType, code)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// PhotoBytes is Photo read fully into memory.
func (s *Service) PhotoBytes(ctx context.Context, photoID string) (*media.RenderedImage, error) {
	img, mimeType, code, err := s.photoSource(ctx, photoID)
	if err != nil {
		return nil, err
	}

	out, err := media.ReadPhoto(img.Path, mimeType, code)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *Service) photoSource(ctx context.Context, photoID string) (*database.Image, string, orientation.Code, error) {
	img, code, err := s.open(ctx, photoID, "photo")
	if err != nil {
		return nil, "", orientation.Normal, err
	}

	mimeType, err := s.store.MimeType(ctx, img.ID)
	if err != nil {
		return nil, "", orientation.Normal, classify(err)
	}
	return img, mimeType, code, nil
}

// open resolves photoID to its stored record and reads its orientation. The
// reference must name an indexed photo by both id and path.
func (s *Service) open(ctx context.Context, photoID, op string) (*database.Image, orientation.Code, error) {
	ref, err := ParseRef(photoID)
	if err != nil {
		return nil, orientation.Normal, err
	}
	if err := ctx.Err(); err != nil {
		return nil, orientation.Normal, err
	}

	img, err := s.store.ImageByID(ctx, ref.ID)
	if err != nil {
		return nil, orientation.Normal, classify(err)
	}
	if img.Path != ref.Path {
		return nil, orientation.Normal, ErrNotFound
	}

	code, err := s.readOrientation(img.Path)
	if err != nil {
		recordOrientationFailure(op)
		return nil, orientation.Normal, classify(err)
	}
	return img, code, nil
}
