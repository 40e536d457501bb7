// Package main provides the entry point for the photo library server.
//
// The server indexes a directory tree of photos into SQLite and serves the
// library as a stream of chunks, together with orientation-corrected
// thumbnails and full-size photos. Albums are the top-level directories of
// the media directory.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT when given
//  2. Configuration Loading: Reads environment variables and creates directories
//  3. Database Initialization: Opens the SQLite photo index
//  4. Component Initialization:
//     - Renderer: libvips when available, the pure Go decoder otherwise
//     - Memory Monitor: Holds renders back while the heap is near its limit
//     - Indexer: Walks the media directory and watches it for changes
//     - Library and Importer: Enumeration, rendering and photo import
//     - Metrics Collector: Refreshes library totals every minute
//  5. HTTP Server Setup: Registers routes and the middleware chain
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and stops components in order
//
// # HTTP Server
//
// The main server (default port 8080) exposes:
//
//	GET  /api/library      NDJSON stream of library chunks
//	GET  /api/albums       album names
//	GET  /api/thumbnail    JPEG thumbnail for ?id=
//	GET  /api/photo        full-size photo for ?id=
//	POST /api/images       download an image into the library
//	POST /api/images/add   copy a local image into an album
//	POST /api/videos       download a video into the library
//	POST /api/reindex      start a background rescan
//
// Health endpoints (/health, /healthz, /livez, /readyz) are always public.
// When ACCESS_TOKEN_HASH is set, every other route needs the matching token
// as a Bearer header or an access_token query parameter.
//
// The metrics server (default port 9090) serves /metrics and /health.
//
// # Environment Variables
//
//   - MEDIA_DIR: Root directory containing photos (default: /photos)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable the metrics server (default: true)
//   - INDEX_INTERVAL: Full rescan interval, 0 disables (default: 30m)
//   - WATCH_ENABLED: Rescan on filesystem events (default: true)
//   - VIPS_ENABLED: Decode with libvips when available (default: true)
//   - ACCESS_TOKEN_HASH: bcrypt hash of the API token, see cmd/hashtoken
//   - DEFAULT_CHUNK_ITEMS: Items per chunk, 0 is unbounded (default: 200)
//   - DEFAULT_CHUNK_SECONDS: Time budget per chunk (default: 2)
//   - LOG_RENDERS: Log thumbnail and photo requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO: Container limit and the share given to Go
//   - LOG_LEVEL: debug, info, warn or error
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the metrics collector, indexer and memory monitor are
// stopped first, then both HTTP servers drain with a 30 second timeout, and
// finally libvips and the database are closed.
package main
