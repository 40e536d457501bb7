// Package database provides the SQLite-backed metadata store for the photo
// library.
//
// Each indexed image is one row in the images table holding its display
// name, native path, stored (unrotated) dimensions, MIME type, album bucket,
// capture date in epoch milliseconds and optional GPS position. Callers read
// it through Query, which returns a forward-only cursor ordered by capture
// date (most recent first) with typed field access by column name.
//
// The database uses WAL mode for concurrent readers and creates its schema
// on open.
package database
