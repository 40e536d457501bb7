// Package handlers provides the HTTP API of the photo library.
//
// It includes handlers for:
//   - Chunked NDJSON enumeration of the library and album listing
//   - Thumbnail rendering and full-photo streaming
//   - Importing images and videos into albums
//   - Re-index triggers, health checks and version information
//
// Renders run under a semaphore sized by the workers package and wait on
// the memory monitor before decoding. When an access token hash is
// configured, TokenAuth guards every route except the health probes.
package handlers
