package estimator

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory StatsStore, used in tests and as a fallback
// when the server runs without persistence.
type MemoryStore struct {
	mu    sync.RWMutex
	stats map[string]CourseStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: make(map[string]CourseStats)}
}

func (s *MemoryStore) Get(ctx context.Context, courseName string) (*CourseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[courseName]
	if !ok {
		return nil, nil
	}
	copied := stats
	return &copied, nil
}

func (s *MemoryStore) Save(ctx context.Context, stats *CourseStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.CourseName] = *stats
	return nil
}
