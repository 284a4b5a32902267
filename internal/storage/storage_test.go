package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(filepath.Join(t.TempDir(), ".depflat", "index.db"), logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); err != nil {
		t.Fatalf("Database file was not created at %s: %v", db.Path(), err)
	}
	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	db, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ReplaceIndex([]IndexedFile{{Path: "a.txt"}}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	n, err := db.CountIndex()
	if err != nil || n != 1 {
		t.Errorf("CountIndex() = %d, %v; want 1", n, err)
	}
}

func TestMigrateFromV1(t *testing.T) {
	db := setupTestDB(t)

	// Rebuild a v1 layout: runs without the language column.
	if _, err := db.conn.Exec("DROP TABLE runs"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec(`CREATE TABLE runs (
		id TEXT PRIMARY KEY, started_at TEXT NOT NULL, target TEXT NOT NULL DEFAULT '',
		entries TEXT NOT NULL, depth TEXT NOT NULL, discovered INTEGER NOT NULL,
		tokens INTEGER NOT NULL DEFAULT 0, output TEXT NOT NULL DEFAULT '')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatal(err)
	}

	if err := db.runMigrations(); err != nil {
		t.Fatalf("runMigrations() error = %v", err)
	}
	if _, err := db.RecordRun(Run{Language: "java", Entries: []string{"A.java"}, Depth: "all"}); err != nil {
		t.Fatalf("RecordRun after migration: %v", err)
	}
}

func TestReplaceIndex(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	got, err := db.ReplaceIndex([]IndexedFile{{Path: "README.md", Tokens: 12}, {Path: "src/A.java"}}, at)
	if err != nil {
		t.Fatalf("ReplaceIndex() error = %v", err)
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("IDs = %d, %d; want 1, 2", got[0].ID, got[1].ID)
	}

	// A second scan replaces everything and renumbers.
	if _, err := db.ReplaceIndex([]IndexedFile{{Path: "src/B.java"}}, at); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != 1 || list[0].Path != "src/B.java" {
		t.Errorf("ListIndex() = %+v", list)
	}
	if !list[0].ScannedAt.Equal(at) {
		t.Errorf("ScannedAt = %v, want %v", list[0].ScannedAt, at)
	}
}

func TestReplaceIndex_DuplicatePathRollsBack(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.ReplaceIndex([]IndexedFile{{Path: "keep.txt"}}, time.Now()); err != nil {
		t.Fatal(err)
	}

	if _, err := db.ReplaceIndex([]IndexedFile{{Path: "x"}, {Path: "x"}}, time.Now()); err == nil {
		t.Fatal("duplicate paths should fail")
	}
	list, err := db.ListIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Path != "keep.txt" {
		t.Errorf("failed replace should leave the old index: %+v", list)
	}
}

func TestLookupIDs(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.ReplaceIndex([]IndexedFile{{Path: "a"}, {Path: "b"}, {Path: "c"}}, time.Now()); err != nil {
		t.Fatal(err)
	}

	found, missing, err := db.LookupIDs([]int64{3, 1, 9, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 3 || found[0].Path != "c" || found[1].Path != "a" || found[2].Path != "c" {
		t.Errorf("found = %+v", found)
	}
	if len(missing) != 1 || missing[0] != 9 {
		t.Errorf("missing = %v", missing)
	}

	found, missing, err = db.LookupIDs(nil)
	if err != nil || found != nil || missing != nil {
		t.Errorf("LookupIDs(nil) = %v, %v, %v", found, missing, err)
	}
}

func TestRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	id1, err := db.RecordRun(Run{StartedAt: base, Target: "default", Entries: []string{"a", "b"}, Depth: "all", Discovered: 4})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == "" {
		t.Fatal("RecordRun() should assign an id")
	}
	if _, err := db.RecordRun(Run{ID: "fixed", StartedAt: base.Add(500 * time.Millisecond), Target: "api", Entries: []string{"c"}, Depth: "2", Tokens: 99}); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() = %d runs, want 2", len(runs))
	}
	if runs[0].ID != "fixed" || runs[1].ID != id1 {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
	if len(runs[1].Entries) != 2 || runs[1].Entries[1] != "b" || runs[1].Discovered != 4 {
		t.Errorf("run round trip = %+v", runs[1])
	}
	if !runs[0].StartedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("StartedAt = %v", runs[0].StartedAt)
	}

	limited, err := db.ListRuns(1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListRuns(1) = %d, %v", len(limited), err)
	}

	if _, err := db.RecordRun(Run{ID: "fixed", Entries: []string{"x"}}); err == nil {
		t.Error("duplicate run id should fail")
	}
}
