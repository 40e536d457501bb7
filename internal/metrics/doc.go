// Package metrics declares the Prometheus metrics exported by the photo
// library service.
//
// Metrics are registered with the default registry through promauto and are
// grouped by subsystem:
//   - HTTP: request counts, durations and in-flight requests
//   - Database: metadata store query counts and latencies
//   - Enumeration: chunks by flush trigger, delivered items, skipped rows,
//     orientation read failures
//   - Rendering: thumbnail outcomes and durations, chosen subsampling
//     factors, decodes by format, full photo pass-through vs re-encode
//   - Indexer and import: runs, processed files, watcher events, imports
//   - Filesystem: stale-handle retries
//
// InitializeMetrics pre-populates label combinations so dashboards see every
// series from the first scrape, and the Collector refreshes library gauges
// from the metadata store on an interval.
package metrics
