// Package media renders library images.
//
// Thumbnailer produces size-bounded JPEG thumbnails: it reads the stored
// image size from the header, picks the largest power-of-two subsampling
// factor that keeps the decoded image at least as large as the target,
// decodes at that scale (shrink-on-load through libvips when available),
// corrects orientation, center-crops to the target aspect and encodes at the
// requested quality. Standard 512x384 requests may be served from the EXIF
// thumbnail embedded in the file.
//
// OpenPhoto and ReadPhoto return full images, re-encoding JPEGs whose
// orientation is not normal so the returned pixels are upright and passing
// every other file through byte for byte.
package media
