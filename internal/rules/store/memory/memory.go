// Package memory keeps published rules in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"candlepin/internal/rules/models"
	"candlepin/pkg/platform/sentinel"
)

// InMemory holds the latest published rules.
type InMemory struct {
	mu     sync.RWMutex
	latest *models.Rules
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Get(_ context.Context) (*models.Rules, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, sentinel.ErrNotFound
	}
	r := *s.latest
	return &r, nil
}

func (s *InMemory) UpdatedAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return time.Time{}, sentinel.ErrNotFound
	}
	return s.latest.UpdatedAt, nil
}

func (s *InMemory) Put(_ context.Context, r *models.Rules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *r
	s.latest = &stored
	return nil
}
