package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_db_queries_total",
			Help: "Total number of metadata store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_db_query_duration_seconds",
			Help:    "Metadata store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Enumeration metrics
var (
	EnumerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_enumerations_total",
			Help: "Total number of library enumerations by outcome",
		},
		[]string{"status"}, // "complete", "canceled", "error"
	)

	EnumerationChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_enumeration_chunks_total",
			Help: "Total number of chunks emitted by the enumeration engine",
		},
		[]string{"trigger"}, // "count", "time", "last"
	)

	EnumerationItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_enumeration_items_total",
			Help: "Total number of library items delivered",
		},
	)

	EnumerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_library_enumeration_duration_seconds",
			Help:    "Wall time of a full enumeration including caller processing",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	OrientationReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_orientation_read_failures_total",
			Help: "Orientation reads that failed and defaulted to no correction",
		},
		[]string{"operation"}, // "enumerate", "thumbnail", "photo"
	)

	EnumerationItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_enumeration_items_skipped_total",
			Help: "Rows skipped during enumeration because they could not be read",
		},
	)
)

// Rendering metrics
var (
	ThumbnailRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_thumbnail_renders_total",
			Help: "Total number of thumbnail renders by outcome",
		},
		[]string{"source", "status"}, // source: "embedded", "decode"; status: "success", "unavailable", "error"
	)

	ThumbnailRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_thumbnail_render_duration_seconds",
			Help:    "Thumbnail render duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	ThumbnailSubsampleFactor = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_library_thumbnail_subsample_factor",
			Help:    "Power-of-two subsampling factor chosen for thumbnail decodes",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	ImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_image_decode_total",
			Help: "Image decodes by detected format and decoder",
		},
		[]string{"format", "decoder"}, // decoder: "imaging", "vips"
	)

	PhotoRetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_photo_retrievals_total",
			Help: "Full photo retrievals by handling mode",
		},
		[]string{"mode"}, // "passthrough", "reencoded", "error"
	)

	RenderWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_render_workers_busy",
			Help: "Number of render slots currently held",
		},
	)

	RenderMemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_render_memory_usage_ratio",
			Help: "Heap in use as a fraction of the Go memory limit",
		},
	)

	RenderMemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_render_memory_paused",
			Help: "1 while new renders are held back for memory pressure",
		},
	)

	RenderMemoryPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_render_memory_pauses_total",
			Help: "Times renders were held back for memory pressure",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_files_processed_total",
			Help: "Total number of files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerWatcherEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_indexer_watcher_events_total",
			Help: "Filesystem watcher events handled by the indexer",
		},
		[]string{"op"}, // "rescan", "remove"
	)
)

// Import metrics
var (
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_imports_total",
			Help: "Media imports by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: "image", "video", "move"
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale NFS handles",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_library_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_library_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds including retries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Library gauges, refreshed by the Collector
var (
	LibraryItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_items",
			Help: "Number of images in the metadata store",
		},
	)

	LibraryAlbums = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_library_albums",
			Help: "Number of distinct albums in the metadata store",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_library_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
