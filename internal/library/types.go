package library

import (
	"time"

	"photo-library/internal/database"
)

// DateLayout formats creation dates: UTC, millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z"

// LibraryItem is one photo as delivered to callers. Width and Height are the
// display dimensions, already corrected for orientation.
type LibraryItem struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	AlbumIDs     []string  `json:"albumIds,omitempty"`
	CreationDate string    `json:"creationDate"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Ref          PhotoRef  `json:"-"`
	TakenAt      time.Time `json:"-"`
}

// Album is a bucket of photos sharing a directory.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChunkingPolicy controls when enumeration hands a chunk to the caller. A
// chunk is emitted when either limit is reached; zero disables that limit.
// The final chunk is always emitted.
type ChunkingPolicy struct {
	ItemsPerChunk    int
	MaxChunkDuration time.Duration
	IncludeAlbumData bool
}

// Chunk is a batch of enumerated items.
type Chunk struct {
	Items  []LibraryItem `json:"items"`
	Index  int           `json:"chunkNum"`
	IsLast bool          `json:"isLastChunk"`
}

// Filter restricts enumeration. Where is passed to the metadata store as an
// opaque clause with positional Args; the zero Filter matches everything.
type Filter struct {
	Where string
	Args  []any
}

// ByPath matches the single item stored at path.
func ByPath(path string) Filter {
	return Filter{Where: database.ColumnData + " = ?", Args: []any{path}}
}

// ByAlbum matches the items of one album.
func ByAlbum(albumID string) Filter {
	return Filter{Where: database.ColumnBucketID + " = ?", Args: []any{albumID}}
}
