package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMemoryRecorder_RecordPair(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	txID := uuid.NewString()
	source := uuid.NewString()
	dest := uuid.NewString()
	amount := decimal.NewFromInt(500)

	if _, err := r.Record(ctx, txID, source, Debit, amount, now); err != nil {
		t.Fatalf("record debit: %v", err)
	}
	if _, err := r.Record(ctx, txID, dest, Credit, amount, now); err != nil {
		t.Fatalf("record credit: %v", err)
	}

	entries, err := r.ListByTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	var debits, credits int
	for _, e := range entries {
		if !e.Amount.Equal(amount) {
			t.Fatalf("entry amount %s does not match transaction amount %s", e.Amount, amount)
		}
		switch e.Kind {
		case Debit:
			debits++
		case Credit:
			credits++
		}
	}
	if debits != 1 || credits != 1 {
		t.Fatalf("expected one DEBIT and one CREDIT, got %d/%d", debits, credits)
	}
}

func TestMemoryRecorder_RejectsInvalidInput(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := r.Record(ctx, uuid.NewString(), uuid.NewString(), EntryKind("TRANSFER"), decimal.NewFromInt(1), now); err == nil {
		t.Fatal("expected error for invalid entry kind")
	}
	if _, err := r.Record(ctx, uuid.NewString(), uuid.NewString(), Debit, decimal.Zero, now); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}

func TestMemoryRecorder_WalletNet(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()
	now := time.Now().UTC()
	walletID := uuid.NewString()

	// Two credits of 300 and one debit of 100: net 500.
	for i := 0; i < 2; i++ {
		if _, err := r.Record(ctx, uuid.NewString(), walletID, Credit, decimal.NewFromInt(300), now); err != nil {
			t.Fatalf("record credit: %v", err)
		}
	}
	if _, err := r.Record(ctx, uuid.NewString(), walletID, Debit, decimal.NewFromInt(100), now); err != nil {
		t.Fatalf("record debit: %v", err)
	}

	net, err := r.WalletNet(ctx, walletID)
	if err != nil {
		t.Fatalf("wallet net: %v", err)
	}
	if !net.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected net 500, got %s", net)
	}

	other, err := r.WalletNet(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("wallet net for untouched wallet: %v", err)
	}
	if !other.IsZero() {
		t.Fatalf("expected zero net for untouched wallet, got %s", other)
	}
}
