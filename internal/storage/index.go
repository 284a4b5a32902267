package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// IndexedFile is one row of the scan index.
type IndexedFile struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Tokens    int       `json:"tokens,omitempty"`
	ScannedAt time.Time `json:"scannedAt"`
}

// ReplaceIndex swaps the whole scan index for files, numbering them from 1
// in the given order.
func (db *DB) ReplaceIndex(files []IndexedFile, scannedAt time.Time) ([]IndexedFile, error) {
	out := make([]IndexedFile, len(files))
	err := db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM files"); err != nil {
			return err
		}
		stmt, err := tx.Prepare("INSERT INTO files (id, path, tokens, scanned_at) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		at := scannedAt.UTC().Format(time.RFC3339)
		for i, f := range files {
			id := int64(i + 1)
			if _, err := stmt.Exec(id, f.Path, f.Tokens, at); err != nil {
				return fmt.Errorf("failed to index %s: %w", f.Path, err)
			}
			out[i] = IndexedFile{ID: id, Path: f.Path, Tokens: f.Tokens, ScannedAt: scannedAt.UTC().Truncate(time.Second)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListIndex returns the scan index ordered by ID.
func (db *DB) ListIndex() ([]IndexedFile, error) {
	rows, err := db.conn.Query("SELECT id, path, tokens, scanned_at FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list index: %w", err)
	}
	defer rows.Close()
	return scanIndexedFiles(rows)
}

// LookupIDs returns the indexed files for ids, in the order of ids.
// Unknown IDs are reported in missing rather than failing the lookup.
func (db *DB) LookupIDs(ids []int64) (found []IndexedFile, missing []int64, err error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.Query("SELECT id, path, tokens, scanned_at FROM files WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up ids: %w", err)
	}
	defer rows.Close()

	all, err := scanIndexedFiles(rows)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[int64]IndexedFile, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			found = append(found, f)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

// CountIndex returns the number of indexed files.
func (db *DB) CountIndex() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

func scanIndexedFiles(rows *sql.Rows) ([]IndexedFile, error) {
	var files []IndexedFile
	for rows.Next() {
		var f IndexedFile
		var scannedAt string
		if err := rows.Scan(&f.ID, &f.Path, &f.Tokens, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, scannedAt); err == nil {
			f.ScannedAt = t
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index: %w", err)
	}
	return files, nil
}
