package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.RWMutex
	storage map[string]Wallet
}

// NewMemoryStore constructs a concurrency-safe in-memory store useful for
// unit tests. Both balance primitives mutate under the same lock, matching
// the single-round-trip atomicity of the Postgres implementation.
func NewMemoryStore() Store {
	return &memoryStore{storage: make(map[string]Wallet)}
}

func (s *memoryStore) Create(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.storage {
		if existing.OwnerID == w.OwnerID && existing.AssetCode == w.AssetCode && existing.Kind == w.Kind {
			return ErrDuplicateWallet
		}
	}
	s.storage[w.ID] = w
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *memoryStore) FindUserWallet(_ context.Context, ownerID, assetCode string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.storage {
		if w.OwnerID == ownerID && w.AssetCode == assetCode && w.Kind == KindUser {
			return w, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (s *memoryStore) FindSystemWallet(_ context.Context, assetCode string, kind Kind) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.storage {
		if w.OwnerID == "" && w.AssetCode == assetCode && w.Kind == kind {
			return w, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (s *memoryStore) TryDebit(_ context.Context, id string, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.storage[id]
	if !ok || w.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = now
	s.storage[id] = w
	return nil
}

func (s *memoryStore) Credit(_ context.Context, id string, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.storage[id]
	if !ok {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = now
	s.storage[id] = w
	return nil
}

func (s *memoryStore) ListUserBalances(_ context.Context, ownerID string) ([]AssetBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var balances []AssetBalance
	for _, w := range s.storage {
		if w.OwnerID == ownerID {
			balances = append(balances, AssetBalance{AssetCode: w.AssetCode, Balance: w.Balance})
		}
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].AssetCode < balances[j].AssetCode })
	return balances, nil
}
