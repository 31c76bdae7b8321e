package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

const upsertSnapshotQuery = `
	INSERT INTO statistics (id, date, type, data, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		date = excluded.date,
		type = excluded.type,
		data = excluded.data,
		updated_at = CURRENT_TIMESTAMP
`

// GetSnapshot returns the snapshot stored under id, or nil if none exists.
func (db *DB) GetSnapshot(ctx context.Context, id string) (*models.AggregateSnapshot, error) {
	var (
		s    models.AggregateSnapshot
		typ  string
		data string
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, date, type, data FROM statistics WHERE id = ?`, id,
	).Scan(&s.ID, &s.Date, &typ, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot %s: %w", id, err)
	}

	s.Type = models.WindowType(typ)
	if err := decodeSnapshotData(data, &s.Data); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return &s, nil
}

// PutSnapshot inserts or replaces a snapshot.
func (db *DB) PutSnapshot(ctx context.Context, s *models.AggregateSnapshot) error {
	data, err := sonic.MarshalString(s.Data)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", s.ID, err)
	}
	if _, err := db.ExecContext(ctx, upsertSnapshotQuery, s.ID, s.Date, string(s.Type), data); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", s.ID, err)
	}
	return nil
}

// PutSnapshots stores all snapshots in a single transaction.
func (db *DB) PutSnapshots(ctx context.Context, snapshots []*models.AggregateSnapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSnapshotQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range snapshots {
		data, err := sonic.MarshalString(s.Data)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot %s: %w", s.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.ID, s.Date, string(s.Type), data); err != nil {
			return fmt.Errorf("failed to store snapshot %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// ListHistory returns the archived snapshots of a window ordered by date.
// A limit of zero returns all of them.
func (db *DB) ListHistory(ctx context.Context, window models.WindowType, limit int) ([]*models.AggregateSnapshot, error) {
	query := `
		SELECT id, date, type, data FROM statistics
		WHERE type = ? AND id LIKE 'history\_%' ESCAPE '\'
		ORDER BY date DESC
	`
	args := []any{string(window)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s history: %w", string(window), err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.AggregateSnapshot
	for rows.Next() {
		var (
			s    models.AggregateSnapshot
			typ  string
			data string
		)
		if err := rows.Scan(&s.ID, &s.Date, &typ, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Type = models.WindowType(typ)
		if err := decodeSnapshotData(data, &s.Data); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.ID, err)
		}
		out = append(out, &s)
	}

	// Reverse into ascending date order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func decodeSnapshotData(raw string, dst *models.SnapshotData) error {
	if raw != "" {
		if err := sonic.UnmarshalString(raw, dst); err != nil {
			return err
		}
	}
	dst.Normalize()
	return nil
}
