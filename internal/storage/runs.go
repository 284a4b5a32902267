package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// runTimeLayout has a fixed width so stored timestamps sort as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded flatten run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	Target     string    `json:"target"`
	Language   string    `json:"language,omitempty"`
	Entries    []string  `json:"entries"`
	Depth      string    `json:"depth"`
	Discovered int       `json:"discovered"`
	Tokens     int       `json:"tokens,omitempty"`
	Output     string    `json:"output,omitempty"`
}

// RecordRun stores run, assigning a new UUID when ID is empty, and returns
// the ID used.
func (db *DB) RecordRun(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, target, language, entries, depth, discovered, tokens, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(runTimeLayout),
		run.Target,
		run.Language,
		strings.Join(run.Entries, "\n"),
		run.Depth,
		run.Discovered,
		run.Tokens,
		run.Output,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns recorded runs, newest first. limit <= 0 means all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, target, language, entries, depth, discovered, tokens, output
		FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, entries string
		if err := rows.Scan(&r.ID, &startedAt, &r.Target, &r.Language, &entries, &r.Depth, &r.Discovered, &r.Tokens, &r.Output); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(runTimeLayout, startedAt); err == nil {
			r.StartedAt = t
		}
		if entries != "" {
			r.Entries = strings.Split(entries, "\n")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}
