package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
)

// SaveTopic inserts or replaces a topic together with its messages.
func (db *DB) SaveTopic(ctx context.Context, topic *models.Topic) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topics (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_at = COALESCE(topics.created_at, excluded.created_at),
			updated_at = excluded.updated_at
	`, topic.ID, topic.Name, formatTime(topic.CreatedAt), formatTime(topic.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to store topic %s: %w", topic.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE topic_id = ?`, topic.ID); err != nil {
		return fmt.Errorf("failed to clear messages for topic %s: %w", topic.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, topic_id, position, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, msg := range topic.Messages {
		payload, err := sonic.MarshalString(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, msg.ID, topic.ID, i, formatTime(msg.CreatedAt), payload); err != nil {
			return fmt.Errorf("failed to store message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit topic %s: %w", topic.ID, err)
	}
	return nil
}

// GetTopic returns a topic and its messages, or nil if it does not exist.
func (db *DB) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	var (
		topic              models.Topic
		createdAt, updated sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM topics WHERE id = ?`, id,
	).Scan(&topic.ID, &topic.Name, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topic %s: %w", id, err)
	}
	topic.CreatedAt = parseTime(createdAt)
	topic.UpdatedAt = parseTime(updated)

	rows, err := db.QueryContext(ctx,
		`SELECT payload FROM messages WHERE topic_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for topic %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		topic.Messages = append(topic.Messages, msg)
	}
	return &topic, rows.Err()
}

// AllTopics returns every topic with its messages, oldest first.
func (db *DB) AllTopics(ctx context.Context) ([]*models.Topic, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM topics ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}

	var (
		topics []*models.Topic
		byID   = make(map[string]*models.Topic)
	)
	for rows.Next() {
		var (
			topic              models.Topic
			createdAt, updated sql.NullString
		)
		if err := rows.Scan(&topic.ID, &topic.Name, &createdAt, &updated); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topic.CreatedAt = parseTime(createdAt)
		topic.UpdatedAt = parseTime(updated)
		topics = append(topics, &topic)
		byID[topic.ID] = &topic
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}
	_ = rows.Close()

	msgRows, err := db.QueryContext(ctx,
		`SELECT topic_id, payload FROM messages ORDER BY topic_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = msgRows.Close() }()

	for msgRows.Next() {
		var topicID, payload string
		if err := msgRows.Scan(&topicID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		topic, ok := byID[topicID]
		if !ok {
			continue
		}
		msg, err := decodeMessage(payload)
		if err != nil {
			logger.Warn("Skipping unreadable message", "topic_id", topicID, "error", err)
			continue
		}
		topic.Messages = append(topic.Messages, msg)
	}

	return topics, msgRows.Err()
}

// CountTopics returns the number of stored topics.
func (db *DB) CountTopics(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return n, nil
}

func scanMessage(rows *sql.Rows) (*models.Message, error) {
	var payload string
	if err := rows.Scan(&payload); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	msg, err := decodeMessage(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return msg, nil
}

func decodeMessage(payload string) (*models.Message, error) {
	var msg models.Message
	if err := sonic.UnmarshalString(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
