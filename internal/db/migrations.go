package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/timewindow"
)

// migrate upgrades rows written by earlier versions of the store.
// Topics without timestamps get now, and missing live snapshot rows are seeded.
func (db *DB) migrate(now time.Time) error {
	stamp := now.Format(timeLayout)
	queries := []struct {
		query string
		args  []any
	}{
		{`UPDATE topics SET created_at = ? WHERE created_at IS NULL OR created_at = ''`, []any{stamp}},
		{`UPDATE topics SET updated_at = created_at WHERE updated_at IS NULL OR updated_at = ''`, nil},
	}

	for _, q := range queries {
		if _, err := db.ExecContext(context.Background(), q.query, q.args...); err != nil {
			return fmt.Errorf("failed to backfill topic timestamps: %w", err)
		}
	}

	return db.seedLiveSnapshots(now)
}

func (db *DB) seedLiveSnapshots(now time.Time) error {
	date := timewindow.FormatDate(now)
	for _, w := range models.Windows {
		_, err := db.ExecContext(context.Background(),
			`INSERT OR IGNORE INTO statistics (id, date, type, data) VALUES (?, ?, ?, '{}')`,
			string(w), date, string(w),
		)
		if err != nil {
			return fmt.Errorf("failed to seed %s snapshot: %w", w, err)
		}
	}
	return nil
}
