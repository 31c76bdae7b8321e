// Package topics imports conversations from topic files and watches them for changes.
package topics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
)

// Store persists imported topics.
type Store interface {
	SaveTopic(ctx context.Context, topic *models.Topic) error
}

// Event represents a topics service event.
type Event struct {
	Error  error
	Path   string
	Topics []*models.Topic
	Type   EventType
}

// EventType defines the type of topics event.
type EventType int

const (
	EventTopicsChanged EventType = iota
	EventError
)

const defaultDebounce = 150 * time.Millisecond

// Service imports topic files from a directory and reports changes.
type Service struct {
	mu        sync.Mutex
	dir       string
	store     Store
	watcher   *fsnotify.Watcher
	timers    map[string]*time.Timer
	eventChan chan Event
	stopChan  chan struct{}
	debounce  time.Duration
	closeOnce sync.Once
}

// New creates a topics service for dir. Call Start to begin watching.
func New(dir string, store Store) (*Service, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create topics directory: %w", err)
	}

	return &Service{
		dir:       dir,
		store:     store,
		timers:    make(map[string]*time.Timer),
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		debounce:  defaultDebounce,
	}, nil
}

// Dir returns the watched directory.
func (s *Service) Dir() string {
	return s.dir
}

// Events returns the event channel for subscribing to topic changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Scan imports every topic file currently in the directory.
// Unreadable files are logged and skipped.
func (s *Service) Scan(ctx context.Context) ([]*models.Topic, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list topic files: %w", err)
	}
	sort.Strings(matches)

	var all []*models.Topic
	for _, path := range matches {
		topics, err := s.ImportFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping topic file", "path", path, "error", err)
			continue
		}
		all = append(all, topics...)
	}
	return all, nil
}

// ImportFile parses path and stores every topic in it.
func (s *Service) ImportFile(ctx context.Context, path string) ([]*models.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	topics, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, t := range topics {
		if err := s.store.SaveTopic(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to save topic %s: %w", t.ID, err)
		}
	}
	return topics, nil
}

// Start begins watching the directory for created or modified topic files.
func (s *Service) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

// watchLoop handles file system events with per-file debouncing.
func (s *Service) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.schedule(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) schedule(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timers == nil {
		return
	}
	if t, ok := s.timers[path]; ok {
		t.Stop()
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		s.handleFileChange(path)
	})
}

// handleFileChange re-imports a file after an external change.
func (s *Service) handleFileChange(path string) {
	topics, err := s.ImportFile(context.Background(), path)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Path: path, Error: err})
		return
	}
	if len(topics) == 0 {
		return
	}
	s.sendEvent(Event{Type: EventTopicsChanged, Path: path, Topics: topics})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.timers = nil
		watcher := s.watcher
		s.mu.Unlock()

		if watcher != nil {
			err = watcher.Close()
		}
	})
	return err
}
