package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mint-pay/mint_pay/internal/ledger"
	"github.com/mint-pay/mint_pay/internal/logging"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

// pendingTransaction plants a PENDING record stamped long enough ago for the
// sweep threshold to consider it stranded.
func (f *fixture) pendingTransaction(t *testing.T, amount int64, key string, stamped time.Time) transaction.Transaction {
	t.Helper()
	tx := transaction.Transaction{
		ID:             uuid.NewString(),
		Kind:           transaction.KindSpend,
		UserID:         f.userID,
		AssetCode:      "GOLD",
		Amount:         decimal.NewFromInt(amount),
		Status:         transaction.StatusPending,
		IdempotencyKey: key,
		CreatedAt:      stamped,
		UpdatedAt:      stamped,
	}
	if err := f.txs.Create(context.Background(), tx); err != nil {
		t.Fatalf("create pending transaction: %v", err)
	}
	return tx
}

func (f *fixture) sweeper() *Sweeper {
	return NewSweeper(f.wallets, f.txs, f.entries, nil, time.Minute, logging.Discard())
}

func (f *fixture) status(t *testing.T, id string) transaction.Transaction {
	t.Helper()
	tx, err := f.txs.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	return tx
}

func TestSweeper_CompletesWhenBothEntriesExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stamped := f.now.Add(-5 * time.Minute)

	// Both mutations landed before the crash: debit on the user wallet,
	// credit on revenue.
	tx := f.pendingTransaction(t, 200, "sw1", stamped)
	wallet.SeedBalance(f.wallets, f.revenue.ID, decimal.NewFromInt(200))
	if _, err := f.entries.Record(ctx, tx.ID, f.userWallet.ID, ledger.Debit, tx.Amount, stamped); err != nil {
		t.Fatalf("record debit: %v", err)
	}
	if _, err := f.entries.Record(ctx, tx.ID, f.revenue.ID, ledger.Credit, tx.Amount, stamped); err != nil {
		t.Fatalf("record credit: %v", err)
	}

	resolved, err := f.sweeper().SweepOnce(ctx, f.now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("expected 1 resolved, got %d", resolved)
	}
	if got := f.status(t, tx.ID); got.Status != transaction.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", got.Status)
	}
}

func TestSweeper_CompensatesDebitWithoutCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stamped := f.now.Add(-5 * time.Minute)

	// The debit landed and was recorded, the credit never happened. The
	// user wallet holds 800 after the debit of 200.
	tx := f.pendingTransaction(t, 200, "sw2", stamped)
	wallet.SeedBalance(f.wallets, f.userWallet.ID, decimal.NewFromInt(800))
	if _, err := f.entries.Record(ctx, tx.ID, f.userWallet.ID, ledger.Debit, tx.Amount, stamped); err != nil {
		t.Fatalf("record debit: %v", err)
	}

	if _, err := f.sweeper().SweepOnce(ctx, f.now); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got := f.status(t, tx.ID)
	if got.Status != transaction.StatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if got.FailureReason != transaction.ReasonRecoveryCompensated {
		t.Fatalf("expected RECOVERY_COMPENSATED, got %s", got.FailureReason)
	}
	if bal := f.balance(t, f.userWallet.ID); !bal.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("expected restored balance 1000, got %s", bal)
	}

	// The compensation leaves a balanced pair on the source wallet.
	net, err := f.entries.WalletNet(ctx, f.userWallet.ID)
	if err != nil {
		t.Fatalf("wallet net: %v", err)
	}
	if !net.IsZero() {
		t.Fatalf("source entries unbalanced, net %s", net)
	}
}

func TestSweeper_FinalizesAlreadyCompensated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stamped := f.now.Add(-5 * time.Minute)

	// Debit and balancing credit both sit on the source wallet: the engine
	// compensated but crashed before finalizing. Funds must not move again.
	tx := f.pendingTransaction(t, 200, "sw3", stamped)
	wallet.SeedBalance(f.wallets, f.userWallet.ID, decimal.NewFromInt(1_000))
	if _, err := f.entries.Record(ctx, tx.ID, f.userWallet.ID, ledger.Debit, tx.Amount, stamped); err != nil {
		t.Fatalf("record debit: %v", err)
	}
	if _, err := f.entries.Record(ctx, tx.ID, f.userWallet.ID, ledger.Credit, tx.Amount, stamped); err != nil {
		t.Fatalf("record credit: %v", err)
	}

	if _, err := f.sweeper().SweepOnce(ctx, f.now); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got := f.status(t, tx.ID)
	if got.Status != transaction.StatusFailed || got.FailureReason != transaction.ReasonRecoveryCompensated {
		t.Fatalf("expected FAILED/RECOVERY_COMPENSATED, got %s/%s", got.Status, got.FailureReason)
	}
	if bal := f.balance(t, f.userWallet.ID); !bal.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("sweep moved funds on already-compensated transaction: %s", bal)
	}
}

func TestSweeper_ExpiresWithoutEntries(t *testing.T) {
	f := newFixture(t)

	tx := f.pendingTransaction(t, 200, "sw4", f.now.Add(-5*time.Minute))
	if _, err := f.sweeper().SweepOnce(context.Background(), f.now); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got := f.status(t, tx.ID)
	if got.Status != transaction.StatusFailed || got.FailureReason != transaction.ReasonRecoveryExpired {
		t.Fatalf("expected FAILED/RECOVERY_EXPIRED, got %s/%s", got.Status, got.FailureReason)
	}
}

func TestSweeper_LeavesFreshPendingAlone(t *testing.T) {
	f := newFixture(t)

	// Stamped inside the threshold: an in-flight request, not a stranded one.
	tx := f.pendingTransaction(t, 200, "sw5", f.now.Add(-10*time.Second))
	resolved, err := f.sweeper().SweepOnce(context.Background(), f.now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("expected 0 resolved, got %d", resolved)
	}
	if got := f.status(t, tx.ID); got.Status != transaction.StatusPending {
		t.Fatalf("fresh pending finalized: %s", got.Status)
	}
}

func TestSweeper_LeaderLease(t *testing.T) {
	f := newFixture(t)

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	a := NewSweeper(f.wallets, f.txs, f.entries, client, time.Minute, logging.Discard())
	b := NewSweeper(f.wallets, f.txs, f.entries, client, time.Minute, logging.Discard())

	ctx := context.Background()
	if !a.acquireLease(ctx, time.Minute) {
		t.Fatal("first instance should acquire the lease")
	}
	if b.acquireLease(ctx, time.Minute) {
		t.Fatal("second instance acquired a held lease")
	}

	// Once the lease expires the next instance takes over.
	srv.FastForward(2 * time.Minute)
	if !b.acquireLease(ctx, time.Minute) {
		t.Fatal("lease should be free after expiry")
	}
}
