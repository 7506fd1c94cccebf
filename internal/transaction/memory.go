package transaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	storage map[string]Transaction
	byKey   map[string]string // idempotency key -> transaction id
}

// NewMemoryStore constructs an in-memory store for tests. The byKey index is
// maintained under the same lock as the insert, giving the same atomic
// uniqueness guarantee the Postgres unique index provides.
func NewMemoryStore() Store {
	return &memoryStore{
		storage: make(map[string]Transaction),
		byKey:   make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.IdempotencyKey != "" {
		if _, taken := s.byKey[tx.IdempotencyKey]; taken {
			return ErrDuplicateKey
		}
	}
	s.storage[tx.ID] = tx
	if tx.IdempotencyKey != "" {
		s.byKey[tx.IdempotencyKey] = tx.ID
	}
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.storage[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (s *memoryStore) FindByIdempotencyKey(_ context.Context, key string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return s.storage[id], nil
}

func (s *memoryStore) Finalize(_ context.Context, id string, status Status, reason FailureReason, now time.Time) error {
	if !status.Terminal() {
		return ErrAlreadyFinal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.storage[id]
	if !ok {
		return ErrNotFound
	}
	if tx.Status != StatusPending {
		return ErrAlreadyFinal
	}
	tx.Status = status
	tx.FailureReason = reason
	tx.UpdatedAt = now
	s.storage[id] = tx
	return nil
}

func (s *memoryStore) ListPendingBefore(_ context.Context, cutoff time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []Transaction
	for _, tx := range s.storage {
		if tx.Status == StatusPending && tx.UpdatedAt.Before(cutoff) {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].UpdatedAt.Before(txs[j].UpdatedAt) })
	return txs, nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []Transaction
	for _, tx := range s.storage {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}
