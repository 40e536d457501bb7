package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertImage inserts or updates an image record within a transaction.
// seen marks the record as present in the indexing run that started at seen;
// DeleteMissing removes records not marked by the current run.
func (d *Database) UpsertImage(tx *sql.Tx, img *Image, seen time.Time) error {
	query := `
	INSERT INTO images (display_name, data, width, height, mime_type, bucket_id,
		bucket_display_name, date_taken, latitude, longitude, size, mod_time, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(data) DO UPDATE SET
		display_name = excluded.display_name,
		width = excluded.width,
		height = excluded.height,
		mime_type = excluded.mime_type,
		bucket_id = excluded.bucket_id,
		bucket_display_name = excluded.bucket_display_name,
		date_taken = excluded.date_taken,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		size = excluded.size,
		mod_time = excluded.mod_time,
		indexed_at = excluded.indexed_at
	`

	start := time.Now()
	// The transaction controls the operation's lifecycle.
	_, err := tx.ExecContext(context.Background(), query,
		img.DisplayName,
		img.Path,
		img.Width,
		img.Height,
		img.MimeType,
		img.BucketID,
		img.BucketName,
		img.DateTaken.UnixMilli(),
		nullFloat(img.Latitude),
		nullFloat(img.Longitude),
		img.Size,
		img.ModTime.Unix(),
		seen.UnixMilli(),
	)
	recordQuery("upsert_image", start, err)
	return err
}

// DeleteMissing removes images not seen since cutoff. Must be called within a
// transaction.
func (d *Database) DeleteMissing(tx *sql.Tx, cutoff time.Time) (int64, error) {
	start := time.Now()
	result, err := tx.ExecContext(context.Background(),
		"DELETE FROM images WHERE indexed_at < ?",
		cutoff.UnixMilli(),
	)
	recordQuery("delete_missing", start, err)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteByPath removes the image stored at path, if any.
func (d *Database) DeleteByPath(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_by_path", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM images WHERE data = ?", path)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ImageByID returns the image with the given id.
func (d *Database) ImageByID(ctx context.Context, id int64) (*Image, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("image_by_id", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		img                 Image
		dateTaken, modTime  int64
		latitude, longitude sql.NullFloat64
	)
	err = d.db.QueryRowContext(ctx, `
		SELECT id, display_name, data, width, height, mime_type, bucket_id,
			bucket_display_name, date_taken, latitude, longitude, size, mod_time
		FROM images WHERE id = ?
	`, id).Scan(
		&img.ID, &img.DisplayName, &img.Path, &img.Width, &img.Height, &img.MimeType,
		&img.BucketID, &img.BucketName, &dateTaken, &latitude, &longitude, &img.Size, &modTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	img.DateTaken = time.UnixMilli(dateTaken).UTC()
	img.ModTime = time.Unix(modTime, 0)
	if latitude.Valid {
		img.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		img.Longitude = &longitude.Float64
	}
	return &img, nil
}

// MimeType returns the stored MIME type of the image with the given id.
func (d *Database) MimeType(ctx context.Context, id int64) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("mime_type", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mime string
	err = d.db.QueryRowContext(ctx, "SELECT mime_type FROM images WHERE id = ?", id).Scan(&mime)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	return mime, err
}

// Albums returns one entry per distinct bucket, ordered by name.
func (d *Database) Albums(ctx context.Context) ([]Bucket, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("albums", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT bucket_id, bucket_display_name FROM images
		GROUP BY bucket_id, bucket_display_name
		ORDER BY bucket_display_name COLLATE NOCASE, bucket_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []Bucket
	for rows.Next() {
		var b Bucket
		if err = rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	err = rows.Err()
	return buckets, err
}

// Count returns the number of indexed images.
func (d *Database) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n)
	return n, err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
