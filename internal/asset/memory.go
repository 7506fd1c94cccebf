package asset

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Asset
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository(assets ...Asset) Repository {
	r := &memoryRepository{storage: make(map[string]Asset)}
	for _, a := range assets {
		r.storage[a.Code] = a
	}
	return r
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.storage[code]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}
