// Package tracker turns observed conversation state into statistics events.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/j-veylop/chatstats-tui/internal/db"
	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/statistics"
)

// Recorder receives message and topic events.
type Recorder interface {
	RecordMessage(ctx context.Context, msg *models.Message) statistics.Results
	RecordTopic(ctx context.Context, topicID string) (statistics.Results, error)
}

// Ledger remembers which events were already counted.
type Ledger interface {
	MarkRecorded(ctx context.Context, kind, id string) (bool, error)
	IsRecorded(ctx context.Context, kind, id string) (bool, error)
}

// Outcome describes what a single observation recorded.
type Outcome struct {
	Messages      []string
	Failed        []models.WindowType
	TopicRecorded bool
}

// Changed reports whether anything was recorded.
func (o Outcome) Changed() bool {
	return len(o.Messages) > 0 || o.TopicRecorded
}

// Tracker forwards new successful messages and new topics to a Recorder.
type Tracker struct {
	mu       sync.Mutex
	recorder Recorder
	ledger   Ledger
}

// New creates a Tracker.
func New(recorder Recorder, ledger Ledger) *Tracker {
	return &Tracker{recorder: recorder, ledger: ledger}
}

// Observe records every successful message of topic that has not been
// counted yet, and the topic itself the first time it has any.
// Per-window failures are logged and reported in the outcome.
func (t *Tracker) Observe(ctx context.Context, topic *models.Topic) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out Outcome

	successful := topic.SuccessfulMessages()
	if len(successful) == 0 {
		return out, nil
	}

	for _, msg := range successful {
		fresh, err := t.ledger.MarkRecorded(ctx, db.KindMessage, msg.ID)
		if err != nil {
			return out, fmt.Errorf("failed to mark message %s: %w", msg.ID, err)
		}
		if !fresh {
			continue
		}
		if msg.TopicID == "" {
			msg.TopicID = topic.ID
		}

		res := t.recorder.RecordMessage(ctx, msg)
		res.Log("Failed to record message", "message_id", msg.ID)
		out.Failed = append(out.Failed, res.Failed()...)
		out.Messages = append(out.Messages, msg.ID)
	}

	// The topic is only marked once its session has been counted.
	seen, err := t.ledger.IsRecorded(ctx, db.KindTopic, topic.ID)
	if err != nil {
		return out, err
	}
	if !seen {
		res, err := t.recorder.RecordTopic(ctx, topic.ID)
		if err != nil {
			return out, err
		}
		if _, err := t.ledger.MarkRecorded(ctx, db.KindTopic, topic.ID); err != nil {
			return out, fmt.Errorf("failed to mark topic %s: %w", topic.ID, err)
		}
		res.Log("Failed to record topic", "topic_id", topic.ID)
		out.Failed = append(out.Failed, res.Failed()...)
		out.TopicRecorded = true
	}

	if out.Changed() {
		logger.Debug("Recorded conversation activity",
			"topic_id", topic.ID, "messages", len(out.Messages), "topic", out.TopicRecorded)
	}
	return out, nil
}

// Baseline marks every message and topic as already counted without
// recording them.
func (t *Tracker) Baseline(ctx context.Context, topics []*models.Topic) error {
	for _, topic := range topics {
		if len(topic.SuccessfulMessages()) == 0 {
			continue
		}
		for _, msg := range topic.SuccessfulMessages() {
			if _, err := t.ledger.MarkRecorded(ctx, db.KindMessage, msg.ID); err != nil {
				return fmt.Errorf("failed to baseline message %s: %w", msg.ID, err)
			}
		}
		if _, err := t.ledger.MarkRecorded(ctx, db.KindTopic, topic.ID); err != nil {
			return fmt.Errorf("failed to baseline topic %s: %w", topic.ID, err)
		}
	}
	return nil
}
