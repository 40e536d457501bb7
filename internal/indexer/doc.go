// Package indexer keeps the image metadata store in step with the media
// directory.
//
// A full index walks the directory with godirwalk, skipping hidden files and
// directories, and extracts metadata for every image on a bounded worker
// pool:
//   - MIME type, detected from content
//   - stored width and height, read from the image header
//   - capture date from EXIF, falling back to the modification time
//   - GPS position from EXIF, when present
//   - album (bucket) id and name, derived from the parent directory
//
// Records are written in batches and stamped with the start of the run;
// once the walk completes, records the run did not see are removed. A
// canceled or failed walk removes nothing.
//
// Between full runs the indexer either polls the top of the tree for
// changes or, with watching enabled, follows fsnotify events and rescans
// individual files. Rescan is also the hook importers call after writing a
// file.
package indexer
