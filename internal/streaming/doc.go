/*
Package streaming writes HTTP response bodies with bounded, deadline-protected
chunks.

# Overview

Slow or disconnected clients can hold a handler for as long as they like when
a large body is written in one call. Writer splits writes into chunks, arms a
write deadline on the underlying connection before each chunk through
http.ResponseController and flushes between chunks. A client that stops
reading fails the stream with ErrWriteTimeout and a canceled request fails it
with ErrClientGone.

Middleware that wraps the ResponseWriter must expose Unwrap for deadlines to
reach the connection. Writers that cannot carry a deadline, such as
httptest.ResponseRecorder, are written to without one.

# Usage

Full photos are streamed with Copy:

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := streaming.Copy(r.Context(), w, f, streaming.DefaultConfig()); err != nil {
		if !errors.Is(err, streaming.ErrClientGone) {
			logging.Warn("photo stream failed: %v", err)
		}
	}

The NDJSON library stream writes one chunk at a time and flushes after each:

	sw := streaming.NewWriter(r.Context(), w, streaming.DefaultConfig())
	defer sw.Close()
	for chunk, err := range lib.Enumerate(ctx, policy, filter) {
		...
		enc.Encode(chunk)
		sw.Flush()
	}

# Configuration

  - WriteTimeout: deadline for each chunk write (default 30s)
  - ChunkSize: maximum bytes per write before a flush (default 64 KiB)
  - MaxDuration: cap on the whole stream (default unlimited)
*/
package streaming
