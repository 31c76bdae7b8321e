package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	// Verify file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tables := []string{
		"statistics",
		"topics",
		"messages",
		"recorded_events",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify database is closed by trying to query
	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

func TestNew_SeedsLiveSnapshots(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, w := range models.Windows {
		s, err := db.GetSnapshot(context.Background(), string(w))
		if err != nil {
			t.Fatalf("GetSnapshot(%s) failed: %v", w, err)
		}
		if s == nil {
			t.Fatalf("live snapshot %s was not seeded", w)
		}
		if s.Type != w {
			t.Errorf("seeded snapshot %s has type %s", w, s.Type)
		}
		// Seeded rows carry an empty data object and must come back normalized.
		if len(s.Data.Time.UsageByHour) != models.HourBuckets {
			t.Errorf("seeded snapshot %s not normalized", w)
		}
	}
}

func TestMigrate_BackfillsTopicTimestamps(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `INSERT INTO topics (id, name) VALUES ('legacy', 'Old')`); err != nil {
		t.Fatalf("insert legacy topic: %v", err)
	}

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	if err := db.migrate(now); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	topic, err := db.GetTopic(ctx, "legacy")
	if err != nil || topic == nil {
		t.Fatalf("GetTopic failed: %v", err)
	}
	if !topic.CreatedAt.Equal(now) || !topic.UpdatedAt.Equal(now) {
		t.Errorf("timestamps not backfilled: %v / %v", topic.CreatedAt, topic.UpdatedAt)
	}
}

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
