package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

var (
	// ErrWriteTimeout means a client stopped reading for longer than
	// Config.WriteTimeout.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone means the request context ended mid-stream.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamClosed is returned by writes after Close.
	ErrStreamClosed = errors.New("stream closed")
)

// Config bounds how a response body is written.
type Config struct {
	// WriteTimeout caps each chunk write; 0 disables the deadline.
	WriteTimeout time.Duration
	// ChunkSize splits large writes and flushes after each piece; 0 writes
	// as received.
	ChunkSize int
	// MaxDuration caps the whole stream; 0 is unlimited.
	MaxDuration time.Duration
}

// DefaultConfig returns the limits used for photo and library responses.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// Writer writes a response body in bounded chunks. Each chunk arms a write
// deadline on the connection through http.ResponseController and is flushed
// once written, so a stalled client fails the stream instead of pinning the
// handler.
type Writer struct {
	ctx    context.Context
	w      http.ResponseWriter
	rc     *http.ResponseController
	config Config
	start  time.Time

	mu        sync.Mutex
	written   int64
	closed    bool
	deadlines bool
}

// NewWriter wraps w. Writes stop with ErrClientGone once ctx ends.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	return &Writer{
		ctx:       ctx,
		w:         w,
		rc:        http.NewResponseController(w),
		config:    config,
		start:     time.Now(),
		deadlines: config.WriteTimeout > 0,
	}
}

// Write implements io.Writer.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return 0, ErrStreamClosed
	}

	total := 0
	for len(p) > 0 {
		if err := sw.check(); err != nil {
			return total, err
		}

		n := len(p)
		if sw.config.ChunkSize > 0 && n > sw.config.ChunkSize {
			n = sw.config.ChunkSize
		}

		written, err := sw.writeChunk(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]

		if sw.config.ChunkSize > 0 && len(p) > 0 {
			sw.flush()
		}
	}
	return total, nil
}

func (sw *Writer) check() error {
	if err := sw.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrClientGone, err)
	}
	if sw.config.MaxDuration > 0 && time.Since(sw.start) > sw.config.MaxDuration {
		return ErrWriteTimeout
	}
	return nil
}

func (sw *Writer) writeChunk(p []byte) (int, error) {
	if sw.deadlines {
		if err := sw.rc.SetWriteDeadline(time.Now().Add(sw.config.WriteTimeout)); err != nil {
			// Recorders and wrappers without Unwrap cannot carry deadlines.
			sw.deadlines = false
		}
	}

	n, err := sw.w.Write(p)
	sw.written += int64(n)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, fmt.Errorf("%w: %w", ErrWriteTimeout, err)
		}
		if ctxErr := sw.ctx.Err(); ctxErr != nil {
			return n, fmt.Errorf("%w: %w", ErrClientGone, ctxErr)
		}
		return n, err
	}
	return n, nil
}

func (sw *Writer) flush() {
	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		// A failed flush surfaces on the next write.
		return
	}
}

// Flush pushes buffered bytes to the client.
func (sw *Writer) Flush() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.closed {
		sw.flush()
	}
}

// Written returns the bytes written so far.
func (sw *Writer) Written() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.written
}

// Close flushes, clears the write deadline and rejects further writes.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}
	sw.closed = true
	sw.flush()
	if sw.deadlines {
		_ = sw.rc.SetWriteDeadline(time.Time{})
	}
	return nil
}

// Copy streams src to w and returns the number of bytes written.
func Copy(ctx context.Context, w http.ResponseWriter, src io.Reader, config Config) (int64, error) {
	sw := NewWriter(ctx, w, config)
	defer sw.Close()

	// io.Copy would prefer w's ReaderFrom; go through sw so every chunk is
	// bounded.
	buf := make([]byte, copyBufferSize(config))
	_, err := io.CopyBuffer(struct{ io.Writer }{sw}, src, buf)
	return sw.Written(), err
}

func copyBufferSize(config Config) int {
	if config.ChunkSize > 0 {
		return config.ChunkSize
	}
	return 32 * 1024
}
