package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRecorder creates a concurrency-safe in-memory recorder useful for
// unit tests.
func NewMemoryRecorder() Recorder {
	return &memoryRecorder{}
}

func (r *memoryRecorder) Record(_ context.Context, transactionID, walletID string, kind EntryKind, amount decimal.Decimal, now time.Time) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("invalid entry kind %q", kind)
	}
	if !amount.IsPositive() {
		return Entry{}, fmt.Errorf("entry amount must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := Entry{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		WalletID:      walletID,
		Kind:          kind,
		Amount:        amount,
		CreatedAt:     now,
	}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *memoryRecorder) ListByTransaction(_ context.Context, transactionID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []Entry
	for _, e := range r.entries {
		if e.TransactionID == transactionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (r *memoryRecorder) WalletNet(_ context.Context, walletID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	net := decimal.Zero
	for _, e := range r.entries {
		if e.WalletID != walletID {
			continue
		}
		if e.Kind == Credit {
			net = net.Add(e.Amount)
		} else {
			net = net.Sub(e.Amount)
		}
	}
	return net, nil
}
