// Package storage persists the whole-repo scan index and the history of
// flatten runs in a local SQLite database.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"depflat/internal/slogutil"
)

// DB represents a database connection with transaction helpers
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the SQLite database at dbPath, creating parent
// directories, tables and pending migrations as needed.
func Open(dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps WAL mode and busy handling simple for a CLI.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}

	if !dbExists {
		logger.Info("Creating new index database", "path", dbPath)
		err = db.initializeSchema()
	} else {
		err = db.runMigrations()
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return db, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.dbPath
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// WithTx executes fn within a transaction, rolling back when fn fails or
// panics and committing otherwise.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", "error", err, "rollback_error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
