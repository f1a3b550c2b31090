package index

import (
	"fmt"
	"time"

	"github.com/dotmjsc/pwl-editor/internal/models"
)

// WaveformRow represents a row in the waveforms table.
type WaveformRow struct {
	Path      string
	Checksum  string
	Stats     models.Stats
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Snippet string
}

// UpsertWaveform inserts or replaces a waveform row and its FTS entry
// within a transaction. body is the raw PWL text, stored for search.
func (db *DB) UpsertWaveform(w WaveformRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO waveforms (path, checksum, points, duration, min_value, max_value, format, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			points     = excluded.points,
			duration   = excluded.duration,
			min_value  = excluded.min_value,
			max_value  = excluded.max_value,
			format     = excluded.format,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, w.Path, w.Checksum, w.Stats.Points, w.Stats.Duration, w.Stats.MinValue, w.Stats.MaxValue, w.Stats.Format, body, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert waveform: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, w.Path, body, w.Stats.Format); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteWaveform removes a waveform row and its FTS entry.
func (db *DB) DeleteWaveform(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM waveforms WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a waveform, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM waveforms WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetWaveform returns a single catalog row, or nil when not indexed.
func (db *DB) GetWaveform(path string) (*WaveformRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, checksum, points, duration, min_value, max_value, format, updated_at
		FROM waveforms WHERE path = ?
	`, path)
	var w WaveformRow
	err := row.Scan(&w.Path, &w.Checksum, &w.Stats.Points, &w.Stats.Duration,
		&w.Stats.MinValue, &w.Stats.MaxValue, &w.Stats.Format, &w.UpdatedAt)
	if err != nil {
		return nil, nil //nolint:nilerr // not found is not an error for lookups
	}
	return &w, nil
}

// ListWaveforms returns paginated catalog rows with an optional timing
// format filter. sort accepts "updated_at", "duration" and "path"
// (default "path").
func (db *DB) ListWaveforms(limit, offset int, format, sort string) ([]WaveformRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orderBy := "path ASC"
	switch sort {
	case "updated_at":
		orderBy = "updated_at DESC"
	case "duration":
		orderBy = "duration DESC"
	}

	where := ""
	args := []any{}
	if format != "" {
		where = "WHERE format = ?"
		args = append(args, format)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM waveforms `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count waveforms: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, checksum, points, duration, min_value, max_value, format, updated_at
		FROM waveforms %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, orderBy)
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list waveforms: %w", err)
	}
	defer rows.Close()

	var out []WaveformRow
	for rows.Next() {
		var w WaveformRow
		if err := rows.Scan(&w.Path, &w.Checksum, &w.Stats.Points, &w.Stats.Duration,
			&w.Stats.MinValue, &w.Stats.MaxValue, &w.Stats.Format, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed waveform path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM waveforms`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns a path → checksum map for every indexed waveform.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM waveforms`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
