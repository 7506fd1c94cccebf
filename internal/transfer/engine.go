package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mint-pay/mint_pay/internal/ledger"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

// Engine orchestrates a transfer end to end: idempotency guard, atomic
// debit, atomic credit (or compensation), double-entry recording and
// transaction finalization. It is the sole writer of transactions and
// ledger entries.
//
// No lock is held across the two balance mutations. Each is a single
// indivisible store round-trip, so two transfers touching the same wallet
// serialize inside the store and transfers on disjoint wallets never block
// each other. The durable PENDING record written before the debit is what
// lets the recovery sweep resolve a crash between the two steps.
type Engine struct {
	wallets      wallet.Store
	transactions transaction.Store
	entries      ledger.Recorder
	logger       *slog.Logger
}

// NewEngine builds a transfer engine.
func NewEngine(wallets wallet.Store, transactions transaction.Store, entries ledger.Recorder, logger *slog.Logger) *Engine {
	return &Engine{wallets: wallets, transactions: transactions, entries: entries, logger: logger}
}

// ExecuteInput carries one transfer request between two resolved wallets.
type ExecuteInput struct {
	Kind           transaction.Kind
	SourceWalletID string
	DestWalletID   string
	Amount         decimal.Decimal
	IdempotencyKey string
	UserID         string
	AssetCode      string
	Reference      string
	Now            time.Time
}

// Result is the outcome of a successful transfer. Balances are re-read
// after commit, never taken from in-memory copies.
type Result struct {
	Transaction   transaction.Transaction
	SourceBalance decimal.Decimal
	DestBalance   decimal.Decimal
}

// Execute runs one transfer. On any conflict the returned error identifies
// the cause; when a debit was attempted a terminal FAILED record carrying
// the idempotency key is persisted alongside it.
func (e *Engine) Execute(ctx context.Context, in ExecuteInput) (Result, error) {
	if err := e.validate(in); err != nil {
		return Result{}, err
	}

	// Fast path: a transaction already holding the key settles the outcome
	// without touching any balance. PENDING means another attempt is in
	// flight (or awaiting recovery) and is treated as a duplicate.
	existing, err := e.transactions.FindByIdempotencyKey(ctx, in.IdempotencyKey)
	switch {
	case err == nil:
		if existing.Status == transaction.StatusFailed {
			return Result{}, ErrPriorFailureReplay
		}
		return Result{}, ErrDuplicateRequest
	case !errors.Is(err, transaction.ErrNotFound):
		return Result{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	// Durable intent before the first mutation. The unique index on the
	// key is the authoritative guard: of N concurrent attempts exactly one
	// insert wins.
	tx := transaction.Transaction{
		ID:             uuid.NewString(),
		Kind:           in.Kind,
		UserID:         in.UserID,
		AssetCode:      in.AssetCode,
		Amount:         in.Amount,
		Status:         transaction.StatusPending,
		IdempotencyKey: in.IdempotencyKey,
		Reference:      in.Reference,
		CreatedAt:      in.Now,
		UpdatedAt:      in.Now,
	}
	if err := e.transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, transaction.ErrDuplicateKey) {
			return Result{}, ErrDuplicateRequest
		}
		return Result{}, fmt.Errorf("create transaction: %w", err)
	}

	// Atomic conditional debit. Refusal (insufficient balance or missing
	// wallet) is a business failure classified by kind and persisted.
	if err := e.wallets.TryDebit(ctx, in.SourceWalletID, in.Amount, in.Now); err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			reason := debitFailureReason(in.Kind)
			e.finalize(ctx, tx.ID, transaction.StatusFailed, reason, in.Now)
			return Result{}, reasonError(reason)
		}
		// Transport failure: the debit outcome is unknown, so the record
		// stays PENDING for the recovery sweep to resolve.
		return Result{}, fmt.Errorf("debit wallet %s: %w", in.SourceWalletID, err)
	}

	// The DEBIT entry doubles as durable evidence that the debit landed;
	// the recovery sweep keys off it.
	if _, err := e.entries.Record(ctx, tx.ID, in.SourceWalletID, ledger.Debit, in.Amount, in.Now); err != nil {
		e.refundSource(ctx, tx, in.SourceWalletID, in.Amount, false, transaction.ReasonLedgerWriteFailed, in.Now)
		return Result{}, fmt.Errorf("record debit entry: %w", err)
	}

	// Atomic unconditional credit. A missing destination should be
	// unreachable given system-wallet provisioning, but when it happens
	// the already-committed debit must be compensated.
	if err := e.wallets.Credit(ctx, in.DestWalletID, in.Amount, in.Now); err != nil {
		e.logger.Error("credit failed, compensating",
			"transaction", tx.ID, "dest_wallet", in.DestWalletID, "error", err)
		e.refundSource(ctx, tx, in.SourceWalletID, in.Amount, true, transaction.ReasonDestinationUnavailable, in.Now)
		return Result{}, ErrDestinationUnavailable
	}

	if _, err := e.entries.Record(ctx, tx.ID, in.DestWalletID, ledger.Credit, in.Amount, in.Now); err != nil {
		// Both mutations landed but the pair is incomplete, so SUCCESS is
		// off the table. Reverse both sides best-effort.
		e.logger.Error("credit entry write failed, reversing transfer",
			"transaction", tx.ID, "error", err)
		if derr := e.wallets.TryDebit(ctx, in.DestWalletID, in.Amount, in.Now); derr != nil {
			e.logger.Error("reversal debit failed, manual reconciliation required",
				"transaction", tx.ID, "dest_wallet", in.DestWalletID, "error", derr)
			return Result{}, fmt.Errorf("record credit entry: %w", err)
		}
		e.refundSource(ctx, tx, in.SourceWalletID, in.Amount, true, transaction.ReasonLedgerWriteFailed, in.Now)
		return Result{}, fmt.Errorf("record credit entry: %w", err)
	}

	if err := e.finalize(ctx, tx.ID, transaction.StatusSuccess, transaction.ReasonNone, in.Now); err != nil {
		return Result{}, err
	}
	tx.Status = transaction.StatusSuccess
	tx.UpdatedAt = in.Now

	source, err := e.wallets.Get(ctx, in.SourceWalletID)
	if err != nil {
		return Result{}, fmt.Errorf("re-read source wallet: %w", err)
	}
	dest, err := e.wallets.Get(ctx, in.DestWalletID)
	if err != nil {
		return Result{}, fmt.Errorf("re-read destination wallet: %w", err)
	}

	return Result{Transaction: tx, SourceBalance: source.Balance, DestBalance: dest.Balance}, nil
}

func (e *Engine) validate(in ExecuteInput) error {
	if !in.Kind.Valid() {
		return validationErrorf("invalid transaction kind %q", in.Kind)
	}
	if !in.Amount.IsPositive() {
		return validationErrorf("amount must be positive")
	}
	if in.IdempotencyKey == "" {
		return validationErrorf("idempotency key required")
	}
	if in.SourceWalletID == "" || in.DestWalletID == "" {
		return validationErrorf("source and destination wallets required")
	}
	return nil
}

// refundSource re-credits the already-debited amount onto the source wallet
// and finalizes the transaction as FAILED. The balancing CREDIT entry is
// appended only when a DEBIT entry exists, keeping every wallet's entry sum
// equal to its balance. When the refund itself fails the record is left
// PENDING so the recovery sweep retries the compensation.
func (e *Engine) refundSource(ctx context.Context, tx transaction.Transaction, sourceID string, amount decimal.Decimal, debitRecorded bool, reason transaction.FailureReason, now time.Time) {
	if err := e.wallets.Credit(ctx, sourceID, amount, now); err != nil {
		e.logger.Error("compensation failed, manual reconciliation required",
			"transaction", tx.ID, "source_wallet", sourceID, "amount", amount.String(), "error", err)
		return
	}
	if debitRecorded {
		if _, err := e.entries.Record(ctx, tx.ID, sourceID, ledger.Credit, amount, now); err != nil {
			e.logger.Error("compensation entry write failed",
				"transaction", tx.ID, "source_wallet", sourceID, "error", err)
		}
	}
	e.finalize(ctx, tx.ID, transaction.StatusFailed, reason, now)
}

func (e *Engine) finalize(ctx context.Context, id string, status transaction.Status, reason transaction.FailureReason, now time.Time) error {
	if err := e.transactions.Finalize(ctx, id, status, reason, now); err != nil {
		e.logger.Error("finalize transaction", "transaction", id, "status", status, "error", err)
		return fmt.Errorf("finalize transaction %s: %w", id, err)
	}
	return nil
}
