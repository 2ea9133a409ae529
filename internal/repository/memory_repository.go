package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"Xuunu.homeostasis/internal/models"
)

// MemoryRepository keeps samples in process memory. Used for tests and local runs.
type MemoryRepository struct {
	mu            sync.RWMutex
	health        map[string][]models.HealthSample
	environmental map[string][]models.EnvironmentalSample
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		health:        make(map[string][]models.HealthSample),
		environmental: make(map[string][]models.EnvironmentalSample),
	}
}

func (r *MemoryRepository) WriteHealthSample(_ context.Context, sample models.HealthSample) (models.HealthSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	list := append(r.health[sample.UserID], sample)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	r.health[sample.UserID] = list
	return sample, nil
}

func (r *MemoryRepository) WriteEnvironmentalSample(_ context.Context, sample models.EnvironmentalSample) (models.EnvironmentalSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	list := append(r.environmental[sample.UserID], sample)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	r.environmental[sample.UserID] = list
	return sample, nil
}

func (r *MemoryRepository) ListHealthSamples(_ context.Context, userID string, limit int) ([]models.HealthSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.health[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.HealthSample, len(list))
	copy(out, list)
	return out, nil
}

func (r *MemoryRepository) ListEnvironmentalSamples(_ context.Context, userID string, limit int) ([]models.EnvironmentalSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.environmental[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.EnvironmentalSample, len(list))
	copy(out, list)
	return out, nil
}

func (r *MemoryRepository) LatestHealthSample(ctx context.Context, userID string) (*models.HealthSample, error) {
	list, err := r.ListHealthSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstHealth(list), nil
}

func (r *MemoryRepository) LatestEnvironmentalSample(ctx context.Context, userID string) (*models.EnvironmentalSample, error) {
	list, err := r.ListEnvironmentalSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstEnvironmental(list), nil
}
