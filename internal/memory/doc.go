// Package memory sets the Go heap limit from the container limit and turns
// heap usage into backpressure for image renders.
//
// Decoding a large photo can allocate hundreds of megabytes at once, so the
// render path asks a [Monitor] for permission before each decode. While the
// heap sits above the critical water mark, [Monitor.Wait] blocks new renders
// until usage falls back below the high water mark or the request ends.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before significant allocations:
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container limit in bytes, typically from the Kubernetes
//     Downward API (resourceFieldRef limits.memory).
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     Lower it when libvips is enabled; its buffers live outside the Go heap.
//
// Without any limit the monitor never pauses and Wait returns immediately.
package memory
