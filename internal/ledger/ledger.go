package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind marks which half of a double-entry pair an entry is.
type EntryKind string

const (
	Debit  EntryKind = "DEBIT"
	Credit EntryKind = "CREDIT"
)

// Valid reports whether the kind is DEBIT or CREDIT.
func (k EntryKind) Valid() bool {
	return k == Debit || k == Credit
}

// Entry is one half of a double-entry record. Entries are append-only and
// immutable: they are never updated or deleted, which is what makes the
// ledger a reconstructable audit trail.
type Entry struct {
	ID            string
	TransactionID string
	WalletID      string
	Kind          EntryKind
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

// Recorder appends ledger entries. Failures propagate to the caller, which
// must not mark a transaction SUCCESS unless both halves of the pair are
// durably recorded.
type Recorder interface {
	Record(ctx context.Context, transactionID, walletID string, kind EntryKind, amount decimal.Decimal, now time.Time) (Entry, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]Entry, error)

	// WalletNet returns sum(CREDIT) - sum(DEBIT) for the wallet, the
	// quantity the reconciliation invariant ties to the wallet balance.
	WalletNet(ctx context.Context, walletID string) (decimal.Decimal, error)
}
