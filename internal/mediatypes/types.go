package mediatypes

import "strings"

// FileType represents the type of a media file.
type FileType string

const (
	// FileTypeImage represents an image the library can decode.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file. Videos can be imported but are
	// not enumerated.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// ImageExtensions maps file extensions to whether they are decodable image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".ogv":  true,
	".3gp":  true,
	".mkv":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".3gp":  "video/3gpp",
	".mkv":  "video/x-matroska",
}

// Subtypes whose file extension differs from the MIME subtype.
var extensionOverrides = map[string]string{
	"jpeg":       ".jpg",
	"quicktime":  ".mov",
	"ogg":        ".ogv",
	"svg+xml":    ".svg",
	"x-icon":     ".ico",
	"x-m4v":      ".m4v",
	"x-matroska": ".mkv",
	"3gpp":       ".3gp",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// ExtensionFor returns the file extension (with leading dot) to use when
// saving content of the given MIME type, e.g. ".jpg" for "image/jpeg".
// Parameters such as "; charset=..." are ignored. Returns "" when mime has
// no subtype.
func ExtensionFor(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	_, subtype, ok := strings.Cut(mime, "/")
	if !ok || subtype == "" {
		return ""
	}
	if ext, ok := extensionOverrides[subtype]; ok {
		return ext
	}
	return "." + subtype
}

// IsLossyRaster reports whether mime names a lossy raster format whose
// pixels are re-encoded when orientation has to be baked in.
func IsLossyRaster(mime string) bool {
	return strings.EqualFold(strings.TrimSpace(mime), "image/jpeg")
}
