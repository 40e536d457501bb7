package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Query selects rows from the images table. Where is an opaque SQL filter
// clause with positional Args; an empty Where matches every row. Rows are
// always ordered by capture date, most recent first.
type Query struct {
	Columns []string
	Where   string
	Args    []any
}

// Rows is a forward-only cursor over a Query result with typed field access
// by column name.
type Rows struct {
	rows   *sql.Rows
	index  map[string]int
	values []any
	start  time.Time
	err    error
}

// Query runs q and returns a cursor over the result. The caller must Close it.
func (d *Database) Query(ctx context.Context, q Query) (*Rows, error) {
	if len(q.Columns) == 0 {
		return nil, fmt.Errorf("query needs at least one column")
	}

	index := make(map[string]int, len(q.Columns))
	for i, c := range q.Columns {
		if !knownColumns[c] {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		index[c] = i
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(q.Columns, ", "))
	sb.WriteString(" FROM images")
	if strings.TrimSpace(q.Where) != "" {
		sb.WriteString(" WHERE (")
		sb.WriteString(q.Where)
		sb.WriteString(")")
	}
	sb.WriteString(" ORDER BY date_taken DESC, id ASC")

	start := time.Now()

	// The cursor outlives this call, so the lock only covers opening it.
	d.mu.RLock()
	rows, err := d.db.QueryContext(ctx, sb.String(), q.Args...)
	d.mu.RUnlock()

	if err != nil {
		recordQuery("query", start, err)
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return &Rows{
		rows:   rows,
		index:  index,
		values: make([]any, len(q.Columns)),
		start:  start,
	}, nil
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}

	ptrs := make([]any, len(r.values))
	for i := range r.values {
		ptrs[i] = &r.values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = fmt.Errorf("scan failed: %w", err)
		return false
	}
	return true
}

// Err returns the error, if any, that ended iteration.
func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

// Close releases the cursor.
func (r *Rows) Close() error {
	err := r.rows.Close()
	recordQuery("query", r.start, r.Err())
	return err
}

func (r *Rows) value(col string) any {
	i, ok := r.index[col]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Has reports whether col is part of the projection.
func (r *Rows) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// IsNull reports whether col is NULL (or not projected) in the current row.
func (r *Rows) IsNull(col string) bool {
	return r.value(col) == nil
}

// String returns col as a string. NULL reads as "".
func (r *Rows) String(col string) string {
	switch v := r.value(col).(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Int64 returns col as a 64-bit integer. NULL reads as 0.
func (r *Rows) Int64(col string) int64 {
	switch v := r.value(col).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

// Int32 returns col as a 32-bit integer. NULL reads as 0.
func (r *Rows) Int32(col string) int32 {
	return int32(r.Int64(col))
}

// Float32 returns col as a 32-bit float. NULL reads as 0.
func (r *Rows) Float32(col string) float32 {
	switch v := r.value(col).(type) {
	case float64:
		return float32(v)
	case int64:
		return float32(v)
	case string:
		f, _ := strconv.ParseFloat(v, 32)
		return float32(f)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 32)
		return float32(f)
	default:
		return 0
	}
}

// Float64 returns col as a 64-bit float. NULL reads as 0.
func (r *Rows) Float64(col string) float64 {
	switch v := r.value(col).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return float64(r.Float32(col))
	}
}
