package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDirectory_GetOrCreateUserWallet(t *testing.T) {
	s := NewMemoryStore()
	d := NewDirectory(s)
	ctx := context.Background()
	now := time.Now().UTC()
	owner := uuid.NewString()

	created, err := d.GetOrCreateUserWallet(ctx, owner, "GOLD", now)
	if err != nil {
		t.Fatalf("first access: %v", err)
	}
	if created.Kind != KindUser {
		t.Fatalf("expected USER wallet, got %s", created.Kind)
	}
	if !created.Balance.IsZero() {
		t.Fatalf("new wallet should start at zero, got %s", created.Balance)
	}

	again, err := d.GetOrCreateUserWallet(ctx, owner, "GOLD", now)
	if err != nil {
		t.Fatalf("second access: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected existing wallet %s, got %s", created.ID, again.ID)
	}
}

func TestDirectory_ConcurrentFirstAccessCreatesOne(t *testing.T) {
	s := NewMemoryStore()
	d := NewDirectory(s)
	ctx := context.Background()
	now := time.Now().UTC()
	owner := uuid.NewString()

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := d.GetOrCreateUserWallet(ctx, owner, "GOLD", now)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = w.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got wallet %s, worker 0 got %s", i, ids[i], ids[0])
		}
	}
}

func TestDirectory_GetSystemWalletNeverCreates(t *testing.T) {
	s := NewMemoryStore()
	d := NewDirectory(s)
	ctx := context.Background()

	if _, err := d.GetSystemWallet(ctx, "GOLD", KindTreasury); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The lookup must not have provisioned anything.
	if _, err := s.FindSystemWallet(ctx, "GOLD", KindTreasury); !errors.Is(err, ErrNotFound) {
		t.Fatalf("system wallet was auto-created: %v", err)
	}
}

func TestDirectory_GetSystemWalletRejectsUserKind(t *testing.T) {
	d := NewDirectory(NewMemoryStore())
	if _, err := d.GetSystemWallet(context.Background(), "GOLD", KindUser); err == nil {
		t.Fatal("expected error for USER kind")
	}
}
