package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mint-pay/mint_pay/internal/ledger"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

const leaderLockKey = "recovery:sweep:leader"

// Sweeper resolves transactions stranded in PENDING by a crash between the
// debit and the credit. The ledger entries written next to each balance
// mutation are the evidence it works from:
//
//   - DEBIT and CREDIT on different wallets: both mutations landed, only the
//     finalization was lost, so the transaction completes as SUCCESS.
//   - DEBIT only: the credit never landed; the source is re-credited with a
//     balancing entry and the transaction fails as RECOVERY_COMPENSATED.
//   - DEBIT and CREDIT on the same wallet: a compensation that lost its
//     finalization; it fails as RECOVERY_COMPENSATED without touching funds.
//   - no entries: no mutation is evidenced; the transaction expires as
//     RECOVERY_EXPIRED.
type Sweeper struct {
	wallets      wallet.Store
	transactions transaction.Store
	entries      ledger.Recorder
	cache        *redis.Client // optional; guards multi-instance sweeps
	threshold    time.Duration
	logger       *slog.Logger
}

// NewSweeper builds a recovery sweeper. Transactions PENDING for longer than
// threshold are considered stranded. cache may be nil when a single instance
// runs.
func NewSweeper(wallets wallet.Store, transactions transaction.Store, entries ledger.Recorder,
	cache *redis.Client, threshold time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		wallets:      wallets,
		transactions: transactions,
		entries:      entries,
		cache:        cache,
		threshold:    threshold,
		logger:       logger,
	}
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.acquireLease(ctx, interval) {
				continue
			}
			resolved, err := s.SweepOnce(ctx, time.Now().UTC())
			if err != nil {
				s.logger.Error("recovery sweep failed", "error", err)
				continue
			}
			if resolved > 0 {
				s.logger.Info("recovery sweep resolved transactions", "count", resolved)
			}
		}
	}
}

// acquireLease takes the leader lock so at most one instance sweeps per
// interval. Without Redis the sweep always proceeds.
func (s *Sweeper) acquireLease(ctx context.Context, ttl time.Duration) bool {
	if s.cache == nil {
		return true
	}
	ok, err := s.cache.SetNX(ctx, leaderLockKey, "1", ttl).Result()
	if err != nil {
		s.logger.Warn("sweep lease acquisition failed", "error", err)
		return false
	}
	return ok
}

// SweepOnce resolves every transaction PENDING past the threshold and
// returns how many it finalized.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.transactions.ListPendingBefore(ctx, now.Add(-s.threshold))
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, tx := range stale {
		if err := s.resolve(ctx, tx, now); err != nil {
			s.logger.Error("resolve stranded transaction", "transaction", tx.ID, "error", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (s *Sweeper) resolve(ctx context.Context, tx transaction.Transaction, now time.Time) error {
	entries, err := s.entries.ListByTransaction(ctx, tx.ID)
	if err != nil {
		return err
	}

	var debit, credit *ledger.Entry
	for i := range entries {
		switch entries[i].Kind {
		case ledger.Debit:
			debit = &entries[i]
		case ledger.Credit:
			credit = &entries[i]
		}
	}

	switch {
	case debit != nil && credit != nil && credit.WalletID != debit.WalletID:
		// Both mutations landed; the crash lost only the finalization.
		s.logger.Info("completing stranded transaction", "transaction", tx.ID)
		return s.transactions.Finalize(ctx, tx.ID, transaction.StatusSuccess, transaction.ReasonNone, now)

	case debit != nil && credit != nil:
		// Compensation already balanced the source; finish the bookkeeping.
		return s.transactions.Finalize(ctx, tx.ID, transaction.StatusFailed, transaction.ReasonRecoveryCompensated, now)

	case debit != nil:
		s.logger.Warn("compensating stranded debit", "transaction", tx.ID, "wallet", debit.WalletID)
		if err := s.wallets.Credit(ctx, debit.WalletID, tx.Amount, now); err != nil {
			return err
		}
		if _, err := s.entries.Record(ctx, tx.ID, debit.WalletID, ledger.Credit, tx.Amount, now); err != nil {
			return err
		}
		return s.transactions.Finalize(ctx, tx.ID, transaction.StatusFailed, transaction.ReasonRecoveryCompensated, now)

	default:
		return s.transactions.Finalize(ctx, tx.ID, transaction.StatusFailed, transaction.ReasonRecoveryExpired, now)
	}
}
