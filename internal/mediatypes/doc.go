// Package mediatypes provides shared type definitions and utilities for media file
// handling across the photo library.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Extension Detection
//
// Use GetFileType to determine the type of a file based on its extension:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	switch mediatypes.GetFileType(ext) {
//	case mediatypes.FileTypeImage:
//	    // index it
//	case mediatypes.FileTypeVideo:
//	    // importable, not enumerated
//	}
//
// # MIME Types
//
// GetMimeType maps an extension to a MIME type for HTTP responses, and
// ExtensionFor goes the other way when naming imported files:
//
//	mediatypes.ExtensionFor("image/jpeg")      // ".jpg"
//	mediatypes.ExtensionFor("video/quicktime") // ".mov"
//
// IsLossyRaster reports whether a stored MIME type needs re-encoding when
// orientation is baked into the pixels.
package mediatypes
