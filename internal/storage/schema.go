package storage

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion is bumped with every migration.
//
// v1: files, runs
// v2: runs.language column, index on runs.started_at
const currentSchemaVersion = 2

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, create := range []func(*sql.Tx) error{
			createSchemaVersionTable,
			createFilesTable,
			createRunsTable,
		} {
			if err := create(tx); err != nil {
				return err
			}
		}
		if err := migrateToV2(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Debug("Index schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("index schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running index migrations", "from_version", version, "to_version", currentSchemaVersion)
	return db.WithTx(func(tx *sql.Tx) error {
		if version < 1 {
			for _, create := range []func(*sql.Tx) error{createSchemaVersionTable, createFilesTable, createRunsTable} {
				if err := create(tx); err != nil {
					return err
				}
			}
		}
		if version < 2 {
			if err := migrateToV2(tx); err != nil {
				return err
			}
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var name string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createFilesTable creates the scan index: one row per text file, with IDs
// assigned in walk order starting at 1.
func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			tokens INTEGER NOT NULL DEFAULT 0,
			scanned_at TEXT NOT NULL
		)
	`)
	return err
}

func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			entries TEXT NOT NULL,
			depth TEXT NOT NULL,
			discovered INTEGER NOT NULL,
			tokens INTEGER NOT NULL DEFAULT 0,
			output TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func migrateToV2(tx *sql.Tx) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name = 'language'`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := tx.Exec(`ALTER TABLE runs ADD COLUMN language TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`)
	return err
}
