// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/chatstats-tui/internal/config"
	"github.com/j-veylop/chatstats-tui/internal/db"
	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/services/topics"
	"github.com/j-veylop/chatstats-tui/internal/services/tracker"
	"github.com/j-veylop/chatstats-tui/internal/statistics"
)

type (
	// StatsUpdatedEvent is emitted when conversation activity was recorded.
	StatsUpdatedEvent struct {
		TopicID       string
		Failed        []models.WindowType
		Messages      int
		TopicRecorded bool
	}

	// WindowRotatedEvent is emitted when a live window snapshot is archived.
	WindowRotatedEvent struct {
		Archived *models.AggregateSnapshot
		Window   models.WindowType
	}

	// RecalculatedEvent is emitted after a full rebuild from stored topics.
	RecalculatedEvent struct {
		Duration time.Duration
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (StatsUpdatedEvent) isServiceEvent()  {}
func (WindowRotatedEvent) isServiceEvent() {}
func (RecalculatedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()         {}

// notify sends a desktop notification.
var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// IngestSummary reports the result of an explicit import.
type IngestSummary struct {
	Files    int
	Topics   int
	Messages int
	Sessions int
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	stats       *statistics.Service
	topics      *topics.Service
	tracker     *tracker.Tracker
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	watching    bool
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.stats = statistics.New(m.database, m.database, statistics.WithRotateHook(m.handleRotation))
	m.tracker = tracker.New(m.stats, m.database)

	m.topics, err = topics.New(cfg.TopicsDir, m.database)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	go m.routeEvents()

	return m, nil
}

// Watch imports the topics already on disk as a baseline and starts
// watching for new activity.
func (m *Manager) Watch(ctx context.Context) error {
	existing, err := m.topics.Scan(ctx)
	if err != nil {
		return err
	}
	if err := m.tracker.Baseline(ctx, existing); err != nil {
		return err
	}
	if err := m.topics.Start(); err != nil {
		return err
	}

	m.mu.Lock()
	m.watching = true
	m.mu.Unlock()

	logger.Info("Watching topics", "dir", m.topics.Dir(), "existing", len(existing))
	return nil
}

// Watching reports whether the topics directory is being watched.
func (m *Manager) Watching() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watching
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.topics.Events():
			m.handleTopicsEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleTopicsEvent(event topics.Event) {
	switch event.Type {
	case topics.EventTopicsChanged:
		for _, topic := range event.Topics {
			m.observe(topic)
		}

	case topics.EventError:
		logger.Warn("Topic import failed", "path", event.Path, "error", event.Error)
		m.broadcast(ErrorEvent{Service: "topics", Error: event.Error})
	}
}

func (m *Manager) observe(topic *models.Topic) {
	out, err := m.tracker.Observe(context.Background(), topic)
	if err != nil {
		logger.Error("Failed to record topic activity", "topic_id", topic.ID, "error", err)
		m.broadcast(ErrorEvent{Service: "statistics", Error: err})
		return
	}
	if !out.Changed() {
		return
	}
	m.broadcast(StatsUpdatedEvent{
		TopicID:       topic.ID,
		Messages:      len(out.Messages),
		TopicRecorded: out.TopicRecorded,
		Failed:        out.Failed,
	})
}

// handleRotation runs with the window locked, so it only queues work.
func (m *Manager) handleRotation(archived, _ *models.AggregateSnapshot) {
	m.broadcast(WindowRotatedEvent{Window: archived.Type, Archived: archived})

	if archived.Type != models.WindowDaily || !m.cfg.NotifyRollover {
		return
	}
	usage := archived.Data.Usage
	title := fmt.Sprintf("Chat stats for %s", archived.Date)
	body := fmt.Sprintf("%d messages across %d sessions", usage.TotalMessages, usage.TotalSessions)
	go func() {
		if err := notify(title, body); err != nil {
			logger.Debug("Desktop notification failed", "error", err)
		}
	}()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ev
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Statistics returns the live snapshot for a window, rotating it if stale.
func (m *Manager) Statistics(ctx context.Context, window models.WindowType) (*models.AggregateSnapshot, error) {
	return m.stats.Statistics(ctx, window)
}

// StatsForRange merges archived daily snapshots between start and end.
func (m *Manager) StatsForRange(ctx context.Context, start, end time.Time) (*models.AggregateSnapshot, error) {
	return m.stats.StatsForRange(ctx, start, end)
}

// History returns up to limit archived snapshots of a window, oldest first.
func (m *Manager) History(ctx context.Context, window models.WindowType, limit int) ([]*models.AggregateSnapshot, error) {
	return m.database.ListHistory(ctx, window, limit)
}

// Recalculate rebuilds the live snapshots from every stored topic.
func (m *Manager) Recalculate(ctx context.Context) error {
	start := time.Now()
	if err := m.stats.RecalculateAll(ctx, start); err != nil {
		m.broadcast(ErrorEvent{Service: "statistics", Error: err})
		return err
	}
	m.broadcast(RecalculatedEvent{Duration: time.Since(start)})
	return nil
}

// Ingest imports topic files and records their new activity.
func (m *Manager) Ingest(ctx context.Context, paths ...string) (IngestSummary, error) {
	var (
		sum  IngestSummary
		errs []error
	)
	for _, path := range paths {
		imported, err := m.topics.ImportFile(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sum.Files++
		for _, topic := range imported {
			out, err := m.tracker.Observe(ctx, topic)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			sum.Topics++
			sum.Messages += len(out.Messages)
			if out.TopicRecorded {
				sum.Sessions++
			}
		}
	}
	return sum, errors.Join(errs...)
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Config returns the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.topics.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
