// Package importer adds media to the library.
//
// Sources may be data URLs, http(s) URLs, file:// URLs or absolute paths.
// Content is written to a hidden temporary file inside the album directory,
// checked with mimetype, and renamed to YYYY-M-D-N.ext, N being the first
// free counter for the day. The file is then rescanned into the metadata
// store and, for images, looked up through the library so callers receive
// the same item enumeration would produce.
package importer
