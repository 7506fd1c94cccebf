package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestWallet(kind Kind, ownerID string) Wallet {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		AssetCode: "GOLD",
		Kind:      kind,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStore_TryDebitRefusesOverdraft(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	w := newTestWallet(KindUser, uuid.NewString())
	if err := s.Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	SeedBalance(s, w.ID, decimal.NewFromInt(100))

	if err := s.TryDebit(ctx, w.ID, decimal.NewFromInt(150), now); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	got, err := s.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed after refused debit: %s", got.Balance)
	}

	if err := s.TryDebit(ctx, w.ID, decimal.NewFromInt(100), now); err != nil {
		t.Fatalf("exact-balance debit refused: %v", err)
	}
	got, _ = s.Get(ctx, w.ID)
	if !got.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", got.Balance)
	}
}

func TestMemoryStore_TryDebitMissingWallet(t *testing.T) {
	s := NewMemoryStore()
	err := s.TryDebit(context.Background(), uuid.NewString(), decimal.NewFromInt(1), time.Now())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance for missing wallet, got %v", err)
	}
}

func TestMemoryStore_CreditMissingWallet(t *testing.T) {
	s := NewMemoryStore()
	err := s.Credit(context.Background(), uuid.NewString(), decimal.NewFromInt(1), time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	w := newTestWallet(KindUser, uuid.NewString())
	if err := s.Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	// balance 1000, 40 workers debiting 70 each: exactly 14 can succeed.
	SeedBalance(s, w.ID, decimal.NewFromInt(1000))
	amount := decimal.NewFromInt(70)

	const workers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.TryDebit(ctx, w.ID, amount, now); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 14 {
		t.Fatalf("expected 14 successful debits, got %d", succeeded)
	}
	got, _ := s.Get(ctx, w.ID)
	want := decimal.NewFromInt(1000 - 14*70)
	if !got.Balance.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, got.Balance)
	}
}

func TestMemoryStore_UniqueTriple(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner := uuid.NewString()
	first := newTestWallet(KindUser, owner)
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	second := newTestWallet(KindUser, owner)
	if err := s.Create(ctx, second); !errors.Is(err, ErrDuplicateWallet) {
		t.Fatalf("expected ErrDuplicateWallet, got %v", err)
	}
}

func TestMemoryStore_SystemWalletLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	treasury := newTestWallet(KindTreasury, "")
	if err := s.Create(ctx, treasury); err != nil {
		t.Fatalf("create treasury: %v", err)
	}

	got, err := s.FindSystemWallet(ctx, "GOLD", KindTreasury)
	if err != nil {
		t.Fatalf("find treasury: %v", err)
	}
	if got.ID != treasury.ID {
		t.Fatalf("expected wallet %s, got %s", treasury.ID, got.ID)
	}

	if _, err := s.FindSystemWallet(ctx, "GOLD", KindBonus); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing bonus pool, got %v", err)
	}
}
