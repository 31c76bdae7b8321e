package statistics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory SnapshotStore and TopicStore.
type memStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.AggregateSnapshot
	topics    map[string]*models.Topic
	order     []string
	// failPut makes PutSnapshot fail for ids with this prefix.
	failPut string
	failGet bool
	puts    int
	batches int
}

func newMemStore() *memStore {
	return &memStore{
		snapshots: make(map[string]*models.AggregateSnapshot),
		topics:    make(map[string]*models.Topic),
	}
}

func (m *memStore) GetSnapshot(_ context.Context, id string) (*models.AggregateSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errStoreDown
	}
	s, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *memStore) PutSnapshot(_ context.Context, s *models.AggregateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != "" && strings.HasPrefix(s.ID, m.failPut) {
		return errStoreDown
	}
	m.puts++
	m.snapshots[s.ID] = s.Clone()
	return nil
}

func (m *memStore) PutSnapshots(ctx context.Context, snapshots []*models.AggregateSnapshot) error {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	for _, s := range snapshots {
		if err := m.PutSnapshot(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) GetTopic(_ context.Context, id string) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topics[id], nil
}

func (m *memStore) AllTopics(_ context.Context) ([]*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Topic, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.topics[id])
	}
	return out, nil
}

func (m *memStore) addTopic(t *models.Topic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topics[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.topics[t.ID] = t
}

func (m *memStore) get(id string) *models.AggregateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[id]
}
