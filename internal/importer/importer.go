package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"photo-library/internal/library"
	"photo-library/internal/logging"
	"photo-library/internal/mediatypes"
	"photo-library/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/otiai10/copy"
)

var (
	// ErrInvalidURL means the source URL is malformed or of an unsupported scheme.
	ErrInvalidURL = errors.New("invalid source url")

	// ErrInvalidAlbum means the album name cannot be used as a directory.
	ErrInvalidAlbum = errors.New("invalid album name")

	// ErrUnsupportedMedia means the source content is not of the expected kind.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

var dataURLPattern = regexp.MustCompile(`^data:([^/;,]+)/([^;,]+);base64,`)

// Rescanner brings a single file into the metadata store.
type Rescanner interface {
	Rescan(ctx context.Context, path string) error
}

// Finder looks up library items.
type Finder interface {
	Lookup(ctx context.Context, filter library.Filter) ([]library.LibraryItem, error)
}

// Importer places new media into album directories below the media root.
type Importer struct {
	mediaDir string
	scanner  Rescanner
	finder   Finder
	client   *http.Client
	now      func() time.Time
	log      logging.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient replaces the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Importer) { i.client = c }
}

// WithClock replaces the clock used to name imported files.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New returns an Importer writing below mediaDir.
func New(mediaDir string, scanner Rescanner, finder Finder, opts ...Option) *Importer {
	i := &Importer{
		mediaDir: mediaDir,
		scanner:  scanner,
		finder:   finder,
		client:   &http.Client{Timeout: 2 * time.Minute},
		now:      time.Now,
		log:      logging.With("importer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SaveImage stores the image at rawURL in album and returns its library
// item. The item is nil when the saved file cannot be found in the library
// afterwards.
func (i *Importer) SaveImage(ctx context.Context, rawURL, album string) (item *library.LibraryItem, err error) {
	defer func() { record("image", err) }()

	target, err := i.save(ctx, rawURL, album, "image/")
	if err != nil {
		return nil, err
	}
	return i.index(ctx, target)
}

// SaveVideo stores the video at rawURL in album and returns its path.
// Videos are not enumerated, so no library item is returned.
func (i *Importer) SaveVideo(ctx context.Context, rawURL, album string) (target string, err error) {
	defer func() { record("video", err) }()

	target, err = i.save(ctx, rawURL, album, "video/")
	if err != nil {
		return "", err
	}
	if err := i.scanner.Rescan(ctx, target); err != nil {
		i.log.Debug("rescan of %s: %v", target, err)
	}
	return target, nil
}

// AddImageToAlbum moves the file at src into album and returns its library
// item.
func (i *Importer) AddImageToAlbum(ctx context.Context, src, album string) (item *library.LibraryItem, err error) {
	defer func() { record("move", err) }()

	dir, err := i.albumDir(album)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedMedia, src)
	}

	target, err := i.claimName(dir, strings.ToLower(filepath.Ext(src)))
	if err != nil {
		return nil, err
	}
	if err := move(src, target); err != nil {
		_ = os.Remove(target)
		return nil, err
	}
	i.log.Info("moved %s to %s", src, target)

	// The old location leaves the library.
	if err := i.scanner.Rescan(ctx, src); err != nil {
		i.log.Debug("rescan of %s: %v", src, err)
	}
	return i.index(ctx, target)
}

// index rescans target and looks it up through the enumeration engine.
func (i *Importer) index(ctx context.Context, target string) (*library.LibraryItem, error) {
	if err := i.scanner.Rescan(ctx, target); err != nil {
		return nil, fmt.Errorf("index %s: %w", target, err)
	}

	items, err := i.finder.Lookup(ctx, library.ByPath(target))
	if err != nil {
		return nil, err
	}
	if len(items) != 1 {
		i.log.Warn("expected one library item at %s, found %d", target, len(items))
		return nil, nil
	}
	return &items[0], nil
}

// save writes the content of rawURL into album under a fresh name and
// returns the final path. The content must have a MIME type starting with
// kind.
func (i *Importer) save(ctx context.Context, rawURL, album, kind string) (string, error) {
	dir, err := i.albumDir(album)
	if err != nil {
		return "", err
	}

	// Hidden so scans and the watcher ignore it until it is complete.
	tmp, err := os.CreateTemp(dir, ".import-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	ext, err := i.fetch(ctx, rawURL, tmp)
	if err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	mtype, err := mimetype.DetectFile(tmpPath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mtype.String(), kind) {
		return "", fmt.Errorf("%w: got %s, want %s*", ErrUnsupportedMedia, mtype.String(), kind)
	}
	if ext == "" {
		ext = mediatypes.ExtensionFor(mtype.String())
	}

	target, err := i.claimName(dir, ext)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	i.log.Info("saved %s", target)
	return target, nil
}

// fetch copies the content of rawURL into w and returns the extension the
// source implies, or "" when it implies none.
func (i *Importer) fetch(ctx context.Context, rawURL string, w *os.File) (string, error) {
	switch {
	case strings.HasPrefix(rawURL, "data:"):
		m := dataURLPattern.FindStringSubmatchIndex(rawURL)
		if m == nil {
			return "", fmt.Errorf("%w: the data URL is in incorrect format", ErrInvalidURL)
		}
		mime := rawURL[m[2]:m[3]] + "/" + rawURL[m[4]:m[5]]
		dec := base64.NewDecoder(base64.StdEncoding, strings.NewReader(rawURL[m[1]:]))
		if _, err := io.Copy(w, dec); err != nil {
			return "", fmt.Errorf("%w: the data URL could not be decoded: %w", ErrInvalidURL, err)
		}
		return mediatypes.ExtensionFor(mime), nil

	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
		resp, err := i.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("download %s: %s", u.Redacted(), resp.Status)
		}
		if _, err := io.Copy(w, resp.Body); err != nil {
			return "", fmt.Errorf("download %s: %w", u.Redacted(), err)
		}
		return strings.ToLower(path.Ext(u.Path)), nil

	default:
		src := rawURL
		if strings.HasPrefix(rawURL, "file://") {
			u, err := url.Parse(rawURL)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
			}
			src = u.Path
		}
		if src == "" || !filepath.IsAbs(src) {
			return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
		}
		if err := copy.Copy(src, w.Name()); err != nil {
			return "", err
		}
		return strings.ToLower(filepath.Ext(src)), nil
	}
}

// albumDir returns the directory of album, creating it if needed.
func (i *Importer) albumDir(album string) (string, error) {
	name := strings.TrimSpace(album)
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAlbum, album)
	}

	dir := filepath.Join(i.mediaDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// claimName creates an empty file named YYYY-M-D-N<ext> in dir, with N the
// first free counter starting at 1, and returns its path.
func (i *Importer) claimName(dir, ext string) (string, error) {
	now := i.now()
	prefix := fmt.Sprintf("%d-%d-%d", now.Year(), int(now.Month()), now.Day())

	for n := 1; ; n++ {
		target := filepath.Join(dir, fmt.Sprintf("%s-%d%s", prefix, n, ext))
		f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return target, f.Close()
	}
}

// move renames src to dst, copying across filesystems.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copy.Copy(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func record(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ImportsTotal.WithLabelValues(kind, status).Inc()
}
