package db

import (
	"context"
	"fmt"
)

// MarkRecorded records that the event (kind, id) has been counted.
// It reports false when the event was already recorded.
func (db *DB) MarkRecorded(ctx context.Context, kind, id string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO recorded_events (kind, ref_id) VALUES (?, ?)`, kind, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s %s recorded: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// IsRecorded reports whether the event (kind, id) has been counted.
func (db *DB) IsRecorded(ctx context.Context, kind, id string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recorded_events WHERE kind = ? AND ref_id = ?`, kind, id,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query recorded %s %s: %w", kind, id, err)
	}
	return n > 0, nil
}
