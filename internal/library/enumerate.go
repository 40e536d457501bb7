package library

import (
	"context"
	"errors"
	"iter"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/metrics"
)

var enumerationColumns = []string{
	database.ColumnID,
	database.ColumnDisplayName,
	database.ColumnWidth,
	database.ColumnHeight,
	database.ColumnBucketID,
	database.ColumnDateTaken,
	database.ColumnLatitude,
	database.ColumnLongitude,
	database.ColumnData,
}

// Enumerate returns the library items matching filter, most recent capture
// first, in chunks shaped by policy. The sequence runs one store query and
// holds at most one chunk in memory; each chunk is built only after the
// caller has consumed the previous one. Cancellation of ctx is checked
// between chunks and reported as the sequence's final error.
//
// An empty result yields a single empty chunk marked last. A non-nil error
// ends the sequence.
func (s *Service) Enumerate(ctx context.Context, policy ChunkingPolicy, filter Filter) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		s.enumerate(ctx, policy, filter, yield)
	}
}

// Each calls fn for every chunk of Enumerate and returns the first error
// from the enumeration or fn.
func (s *Service) Each(ctx context.Context, policy ChunkingPolicy, filter Filter, fn func(Chunk) error) error {
	for chunk, err := range s.Enumerate(ctx, policy, filter) {
		if err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns every item matching filter in a single slice.
func (s *Service) Lookup(ctx context.Context, filter Filter) ([]LibraryItem, error) {
	var items []LibraryItem
	err := s.Each(ctx, ChunkingPolicy{IncludeAlbumData: true}, filter, func(c Chunk) error {
		items = append(items, c.Items...)
		return nil
	})
	return items, err
}

func (s *Service) enumerate(ctx context.Context, policy ChunkingPolicy, filter Filter, yield func(Chunk, error) bool) {
	start := time.Now()
	status := "complete"
	defer func() {
		metrics.EnumerationsTotal.WithLabelValues(status).Inc()
		metrics.EnumerationDuration.Observe(time.Since(start).Seconds())
	}()

	fail := func(err error) {
		status = "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "canceled"
		}
		yield(Chunk{}, err)
	}

	if policy.ItemsPerChunk < 0 || policy.MaxChunkDuration < 0 {
		fail(ErrInvalidRequest)
		return
	}
	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	rows, err := s.store.Query(ctx, database.Query{
		Columns: enumerationColumns,
		Where:   filter.Where,
		Args:    filter.Args,
	})
	if err != nil {
		fail(classify(err))
		return
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn("failed to close enumeration cursor: %v", err)
		}
	}()

	// emit hands c to the caller and reports whether enumeration continues.
	emit := func(c Chunk, trigger string) bool {
		metrics.EnumerationChunksTotal.WithLabelValues(trigger).Inc()
		metrics.EnumerationItemsTotal.Add(float64(len(c.Items)))
		s.log.Debug("chunk %d emitted (%d items, %s)", c.Index, len(c.Items), trigger)

		if !yield(c, nil) {
			status = "canceled"
			return false
		}
		if !c.IsLast {
			if err := ctx.Err(); err != nil {
				fail(err)
				return false
			}
		}
		return true
	}

	ch := newChunker(policy, s.now)

	// One row of lookahead tells whether the current item is the last.
	hasNext := rows.Next()
	for hasNext {
		item, ok := s.item(rows, policy)

		hasNext = rows.Next()
		if !hasNext {
			if err := rows.Err(); err != nil {
				fail(err)
				return
			}
		}

		if !ok {
			metrics.EnumerationItemsSkipped.Inc()
			continue
		}

		if chunk, trigger, ready := ch.add(item, !hasNext); ready {
			if !emit(chunk, trigger) {
				return
			}
		}
	}

	if err := rows.Err(); err != nil {
		fail(err)
		return
	}

	if chunk, ok := ch.finish(); ok {
		emit(chunk, triggerLast)
	}
}

// item builds a LibraryItem from the current row. Orientation failures leave
// the stored dimensions in place; rows without a path are skipped.
func (s *Service) item(rows *database.Rows, policy ChunkingPolicy) (LibraryItem, bool) {
	ref := PhotoRef{
		ID:   rows.Int64(database.ColumnID),
		Path: rows.String(database.ColumnData),
	}
	if ref.Path == "" {
		s.log.Warn("skipping image %d without a path", ref.ID)
		return LibraryItem{}, false
	}

	width := int(rows.Int32(database.ColumnWidth))
	height := int(rows.Int32(database.ColumnHeight))

	code, err := s.readOrientation(ref.Path)
	if err != nil {
		recordOrientationFailure("enumerate")
		s.log.Debug("orientation of %s unreadable, using stored dimensions: %v", ref.Path, err)
	} else {
		width, height = code.Dimensions(width, height)
	}

	taken := time.UnixMilli(rows.Int64(database.ColumnDateTaken)).UTC()

	item := LibraryItem{
		ID:           ref.String(),
		FileName:     rows.String(database.ColumnDisplayName),
		Width:        width,
		Height:       height,
		CreationDate: taken.Format(DateLayout),
		Ref:          ref,
		TakenAt:      taken,
	}
	if policy.IncludeAlbumData {
		item.AlbumIDs = []string{rows.String(database.ColumnBucketID)}
	}
	if !rows.IsNull(database.ColumnLatitude) {
		lat := rows.Float64(database.ColumnLatitude)
		item.Latitude = &lat
	}
	if !rows.IsNull(database.ColumnLongitude) {
		lon := rows.Float64(database.ColumnLongitude)
		item.Longitude = &lon
	}
	return item, true
}

func recordOrientationFailure(op string) {
	metrics.OrientationReadFailures.WithLabelValues(op).Inc()
}
