package memory

import (
	"context"
	"sync"

	id "candlepin/pkg/domain"
	audit "candlepin/pkg/platform/audit"
)

// InMemoryStore keeps audit events per consumer. Used by tests and by the
// server when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ConsumerID][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ConsumerID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ConsumerID][]audit.Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ConsumerID] = append(s.events[event.ConsumerID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByConsumer(_ context.Context, consumerID id.ConsumerID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[consumerID]...), nil
}

// ListRecent returns the most recent N events across all consumers, newest last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.order) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.order[start:]...), nil
}
