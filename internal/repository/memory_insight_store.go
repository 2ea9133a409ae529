package repository

import (
	"context"
	"sync"

	"Xuunu.homeostasis/internal/models"
)

// MemoryInsightStore is an in-memory insight store for tests and local runs.
type MemoryInsightStore struct {
	mu      sync.RWMutex
	entries map[string]models.InsightCacheEntry
}

func NewMemoryInsightStore() *MemoryInsightStore {
	return &MemoryInsightStore{entries: make(map[string]models.InsightCacheEntry)}
}

// Get returns the entry for key or nil if absent.
func (s *MemoryInsightStore) Get(_ context.Context, key string) (*models.InsightCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Create stores entry unless its key is already present.
func (s *MemoryInsightStore) Create(_ context.Context, entry models.InsightCacheEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.Key]; ok {
		return false, nil
	}
	s.entries[entry.Key] = entry
	return true, nil
}

// Len reports how many entries are stored.
func (s *MemoryInsightStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
