// Package statistics maintains the rolling usage aggregates for each window.
package statistics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/timewindow"
)

// SnapshotStore persists aggregate snapshots keyed by id.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, id string) (*models.AggregateSnapshot, error)
	PutSnapshot(ctx context.Context, s *models.AggregateSnapshot) error
	PutSnapshots(ctx context.Context, snapshots []*models.AggregateSnapshot) error
}

// TopicStore provides read access to conversations.
type TopicStore interface {
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	AllTopics(ctx context.Context) ([]*models.Topic, error)
}

// RotateFunc is called after a stale live snapshot has been archived.
type RotateFunc func(archived, fresh *models.AggregateSnapshot)

// Service owns the lifecycle of the live window snapshots.
type Service struct {
	snapshots SnapshotStore
	topics    TopicStore
	locks     *windowLocks
	now       func() time.Time
	loc       *time.Location
	onRotate  RotateFunc
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the location calendar boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRotateHook registers fn to run after each rotation. fn runs while the
// window is locked and must not call back into the Service.
func WithRotateHook(fn RotateFunc) Option {
	return func(s *Service) { s.onRotate = fn }
}

// New creates a Service over the given stores.
func New(snapshots SnapshotStore, topics TopicStore, opts ...Option) *Service {
	s := &Service{
		snapshots: snapshots,
		topics:    topics,
		locks:     newWindowLocks(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the location calendar boundaries are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Statistics returns the current live snapshot for window.
func (s *Service) Statistics(ctx context.Context, window models.WindowType) (*models.AggregateSnapshot, error) {
	return s.GetOrRotate(ctx, window, s.now())
}

// GetOrRotate returns the live snapshot for window as of now, creating it
// when absent and archiving it first when its window has elapsed.
func (s *Service) GetOrRotate(ctx context.Context, window models.WindowType, now time.Time) (*models.AggregateSnapshot, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("unknown window %q", window)
	}
	unlock := s.locks.lock(window)
	defer unlock()

	return s.getOrRotateLocked(ctx, window, now.In(s.loc))
}

func (s *Service) getOrRotateLocked(ctx context.Context, window models.WindowType, now time.Time) (*models.AggregateSnapshot, error) {
	current, err := s.snapshots.GetSnapshot(ctx, string(window))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", string(window), err)
	}

	if current == nil {
		fresh := models.NewSnapshot(window, timewindow.FormatDate(now))
		if err := s.snapshots.PutSnapshot(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to create %s snapshot: %w", string(window), err)
		}
		return fresh, nil
	}

	if !s.stale(current, now) {
		return current, nil
	}

	archived := current.Archived()
	if err := s.snapshots.PutSnapshot(ctx, archived); err != nil {
		return nil, fmt.Errorf("failed to archive %s snapshot: %w", string(window), err)
	}
	fresh := models.NewSnapshot(window, timewindow.FormatDate(now))
	if err := s.snapshots.PutSnapshot(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to replace %s snapshot: %w", string(window), err)
	}

	logger.Info("Rotated statistics window", "window", string(window), "archived", archived.ID)
	if s.onRotate != nil {
		s.onRotate(archived, fresh)
	}
	return fresh, nil
}

// stale reports whether live was created in an earlier window than now.
func (s *Service) stale(live *models.AggregateSnapshot, now time.Time) bool {
	if live.Type == models.WindowAllTime {
		return false
	}

	created, err := timewindow.ParseDate(live.Date, s.loc)
	if err != nil {
		logger.Warn("Unreadable snapshot date, rotating", "window", string(live.Type), "date", live.Date)
		return true
	}

	switch live.Type {
	case models.WindowDaily:
		return !timewindow.SameDay(created, now)
	case models.WindowWeekly:
		return !timewindow.SameWeek(created, now)
	case models.WindowMonthly:
		return !timewindow.SameMonth(created, now)
	}
	return false
}

// update runs fn against the live snapshot of window and persists it.
func (s *Service) update(ctx context.Context, window models.WindowType, now time.Time, fn func(*models.SnapshotData)) error {
	unlock := s.locks.lock(window)
	defer unlock()

	snap, err := s.getOrRotateLocked(ctx, window, now)
	if err != nil {
		return err
	}
	fn(&snap.Data)
	if err := s.snapshots.PutSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", string(window), err)
	}
	return nil
}

// forEachWindow applies fn to all four windows concurrently. A failure in
// one window never prevents the others from being updated.
func (s *Service) forEachWindow(ctx context.Context, fn func(*models.SnapshotData)) Results {
	now := s.now().In(s.loc)
	results := make(Results, len(models.Windows))

	var g errgroup.Group
	for i, w := range models.Windows {
		results[i].Window = w
		g.Go(func() error {
			results[i].Err = s.update(ctx, w, now, fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RecordMessage folds a newly completed message into every window.
func (s *Service) RecordMessage(ctx context.Context, msg *models.Message) Results {
	at := s.messageTime(msg.CreatedAt)
	return s.forEachWindow(ctx, func(d *models.SnapshotData) {
		applyMessage(d, msg, at)
	})
}

// RecordTopic folds a session into every window. An unknown topic is a no-op
// and yields nil results.
func (s *Service) RecordTopic(ctx context.Context, topicID string) (Results, error) {
	topic, err := s.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic %s: %w", topicID, err)
	}
	if topic == nil {
		return nil, nil
	}

	return s.forEachWindow(ctx, func(d *models.SnapshotData) {
		applyTopic(d, topic)
	}), nil
}

// StatsForRange merges the archived daily snapshots of every day from start
// to end. It returns nil when no day in the range has history.
func (s *Service) StatsForRange(ctx context.Context, start, end time.Time) (*models.AggregateSnapshot, error) {
	var found []*models.AggregateSnapshot
	for _, day := range timewindow.DaysBetween(start.In(s.loc), end.In(s.loc)) {
		id := models.HistoryID(models.WindowDaily, timewindow.FormatDate(day))
		snap, err := s.snapshots.GetSnapshot(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", id, err)
		}
		if snap != nil {
			found = append(found, snap)
		}
	}
	return Merge(found...), nil
}

// RecalculateAll rebuilds the four live snapshots from every stored topic
// and writes them as a single batch.
func (s *Service) RecalculateAll(ctx context.Context, now time.Time) error {
	now = now.In(s.loc)
	today := timewindow.StartOfDay(now)
	week := timewindow.StartOfWeek(now)
	month := timewindow.StartOfMonth(now)
	date := timewindow.FormatDate(now)

	daily := models.NewSnapshot(models.WindowDaily, date)
	weekly := models.NewSnapshot(models.WindowWeekly, date)
	monthly := models.NewSnapshot(models.WindowMonthly, date)
	allTime := models.NewSnapshot(models.WindowAllTime, date)

	// fold applies fn to every window whose boundary at does not precede.
	fold := func(at time.Time, fn func(*models.SnapshotData)) {
		fn(&allTime.Data)
		if !at.Before(today) {
			fn(&daily.Data)
		}
		if !at.Before(week) {
			fn(&weekly.Data)
		}
		if !at.Before(month) {
			fn(&monthly.Data)
		}
	}

	unlock := s.locks.lockAll()
	defer unlock()

	// Stale live rows are archived in the same batch.
	fresh := map[models.WindowType]*models.AggregateSnapshot{
		models.WindowDaily:   daily,
		models.WindowWeekly:  weekly,
		models.WindowMonthly: monthly,
		models.WindowAllTime: allTime,
	}
	var archived []*models.AggregateSnapshot
	for _, w := range models.Windows {
		live, err := s.snapshots.GetSnapshot(ctx, string(w))
		if err != nil {
			return fmt.Errorf("failed to load %s snapshot: %w", string(w), err)
		}
		if live != nil && s.stale(live, now) {
			archived = append(archived, live.Archived())
		}
	}

	topics, err := s.topics.AllTopics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}

	for _, topic := range topics {
		fold(s.timeOr(topic.CreatedAt, now), func(d *models.SnapshotData) {
			applyTopic(d, topic)
		})
		for _, msg := range topic.Messages {
			at := s.timeOr(msg.CreatedAt, now)
			fold(at, func(d *models.SnapshotData) {
				applyMessage(d, msg, at)
			})
		}
	}

	batch := append(archived, daily, weekly, monthly, allTime)
	if err := s.snapshots.PutSnapshots(ctx, batch); err != nil {
		return fmt.Errorf("failed to store recalculated snapshots: %w", err)
	}
	for _, a := range archived {
		logger.Info("Rotated statistics window", "window", string(a.Type), "archived", a.ID)
		if s.onRotate != nil {
			s.onRotate(a, fresh[a.Type])
		}
	}
	logger.Info("Recalculated statistics", "topics", len(topics), "archived", len(archived))
	return nil
}

func (s *Service) messageTime(t time.Time) time.Time {
	return s.timeOr(t, s.now())
}

func (s *Service) timeOr(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback.In(s.loc)
	}
	return t.In(s.loc)
}
