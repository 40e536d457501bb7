// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Root of the photo library; each subdirectory is an album (default: /photos)
//   - DATABASE_DIR: Path to the metadata database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_INTERVAL: Full re-index interval as Go duration, 0 disables (default: 30m)
//   - WATCH_ENABLED: Use filesystem events instead of polling for changes (default: true)
//   - VIPS_ENABLED: Decode through libvips when it is available (default: true)
//   - RENDER_WORKERS: Concurrent thumbnail and photo renders (default: CPU based)
//   - INDEX_WORKERS: Concurrent metadata extraction during a scan (default: CPU based)
//   - ACCESS_TOKEN_HASH: bcrypt hash of the API bearer token; empty disables auth
//   - DEFAULT_CHUNK_ITEMS: Items per enumeration chunk, 0 is unbounded (default: 200)
//   - DEFAULT_CHUNK_SECONDS: Seconds before a partial chunk is flushed, 0 disables (default: 2)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_RENDERS: Log thumbnail and photo requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Go heap limit used for render backpressure
//
// Invalid values fall back to their defaults with a warning, except
// ACCESS_TOKEN_HASH: a value that is not a bcrypt hash fails startup.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogMemoryConfig]: Memory limit configuration
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogRenderInit]: Decoder selection and render pool size
//   - [LogIndexerInit]: Indexer interval and change detection mode
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
