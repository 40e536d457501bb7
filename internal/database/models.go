package database

import "time"

// Image is one row of the images table.
type Image struct {
	ID          int64
	DisplayName string
	Path        string
	Width       int
	Height      int
	MimeType    string
	BucketID    int64
	BucketName  string
	DateTaken   time.Time
	Latitude    *float64
	Longitude   *float64
	Size        int64
	ModTime     time.Time
}

// Bucket is a distinct (bucket_id, bucket_display_name) pair.
type Bucket struct {
	ID   int64
	Name string
}

// Column names accepted in a Query projection.
const (
	ColumnID          = "id"
	ColumnDisplayName = "display_name"
	ColumnData        = "data"
	ColumnWidth       = "width"
	ColumnHeight      = "height"
	ColumnMimeType    = "mime_type"
	ColumnBucketID    = "bucket_id"
	ColumnBucketName  = "bucket_display_name"
	ColumnDateTaken   = "date_taken"
	ColumnLatitude    = "latitude"
	ColumnLongitude   = "longitude"
	ColumnSize        = "size"
	ColumnModTime     = "mod_time"
)

var knownColumns = map[string]bool{
	ColumnID:          true,
	ColumnDisplayName: true,
	ColumnData:        true,
	ColumnWidth:       true,
	ColumnHeight:      true,
	ColumnMimeType:    true,
	ColumnBucketID:    true,
	ColumnBucketName:  true,
	ColumnDateTaken:   true,
	ColumnLatitude:    true,
	ColumnLongitude:   true,
	ColumnSize:        true,
	ColumnModTime:     true,
}
