package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mint-pay/mint_pay/internal/asset"
	"github.com/mint-pay/mint_pay/internal/identity"
	"github.com/mint-pay/mint_pay/internal/notification"
	"github.com/mint-pay/mint_pay/internal/transaction"
	"github.com/mint-pay/mint_pay/internal/wallet"
)

// Service exposes the wallet operations to the request layer: top-ups funded
// by the treasury, bonus grants funded by the bonus pool, and spends absorbed
// by the revenue wallet, plus the balance and history queries.
type Service struct {
	users        identity.Repository
	assets       asset.Repository
	directory    *wallet.Directory
	transactions transaction.Store
	engine       *Engine
	notifier     notification.Notifier
	logger       *slog.Logger
}

// NewService wires the transfer service.
func NewService(users identity.Repository, assets asset.Repository, directory *wallet.Directory,
	transactions transaction.Store, engine *Engine, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		users:        users,
		assets:       assets,
		directory:    directory,
		transactions: transactions,
		engine:       engine,
		notifier:     notifier,
		logger:       logger,
	}
}

// Request captures one wallet operation from the request layer. The
// idempotency key arrives verbatim from the caller and is never rewritten.
type Request struct {
	UserID         string
	AssetCode      string
	Amount         decimal.Decimal
	IdempotencyKey string
	Reference      string // bonus reason or spend reference, free text
}

// Outcome is returned to the request layer after a successful operation.
type Outcome struct {
	Transaction transaction.Transaction
	NewBalance  decimal.Decimal // user wallet balance, re-read after commit
}

// TopUp moves funds from the asset's TREASURY wallet into the user's wallet.
func (s *Service) TopUp(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, transaction.KindTopUp, req)
}

// Bonus moves funds from the asset's BONUS pool into the user's wallet.
func (s *Service) Bonus(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, transaction.KindBonus, req)
}

// Spend moves funds from the user's wallet into the asset's REVENUE wallet.
func (s *Service) Spend(ctx context.Context, req Request) (Outcome, error) {
	return s.run(ctx, transaction.KindSpend, req)
}

func (s *Service) run(ctx context.Context, kind transaction.Kind, req Request) (Outcome, error) {
	if err := validateRequest(req); err != nil {
		return Outcome{}, err
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Outcome{}, fmt.Errorf("user %s: %w", req.UserID, identity.ErrNotFound)
		}
		return Outcome{}, err
	}
	if _, err := s.assets.FindByCode(ctx, req.AssetCode); err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return Outcome{}, validationErrorf("unknown asset %q", req.AssetCode)
		}
		return Outcome{}, err
	}

	now := time.Now().UTC()

	userWallet, err := s.directory.GetOrCreateUserWallet(ctx, user.ID, req.AssetCode, now)
	if err != nil {
		return Outcome{}, err
	}

	source, dest, err := s.resolveEndpoints(ctx, kind, userWallet, req.AssetCode)
	if err != nil {
		return Outcome{}, err
	}

	res, err := s.engine.Execute(ctx, ExecuteInput{
		Kind:           kind,
		SourceWalletID: source.ID,
		DestWalletID:   dest.ID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		UserID:         user.ID,
		AssetCode:      req.AssetCode,
		Reference:      req.Reference,
		Now:            now,
	})
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Transaction: res.Transaction}
	if kind == transaction.KindSpend {
		outcome.NewBalance = res.SourceBalance
	} else {
		outcome.NewBalance = res.DestBalance
	}

	s.logger.Info("transfer completed",
		"transaction", res.Transaction.ID, "kind", kind, "user", user.ID,
		"asset", req.AssetCode, "amount", req.Amount.String(), "balance", outcome.NewBalance.String())

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindForTransaction(string(kind)),
			Destination: user.ID,
			Body:        fmt.Sprintf("%s of %s %s processed", kind, req.Amount.String(), req.AssetCode),
		})
	}

	return outcome, nil
}

// resolveEndpoints picks the debit and credit wallets for the kind: TOP_UP
// is TREASURY→user, BONUS is BONUS→user, SPEND is user→REVENUE.
func (s *Service) resolveEndpoints(ctx context.Context, kind transaction.Kind, userWallet wallet.Wallet, assetCode string) (wallet.Wallet, wallet.Wallet, error) {
	switch kind {
	case transaction.KindTopUp:
		treasury, err := s.directory.GetSystemWallet(ctx, assetCode, wallet.KindTreasury)
		if err != nil {
			return wallet.Wallet{}, wallet.Wallet{}, err
		}
		return treasury, userWallet, nil
	case transaction.KindBonus:
		pool, err := s.directory.GetSystemWallet(ctx, assetCode, wallet.KindBonus)
		if err != nil {
			return wallet.Wallet{}, wallet.Wallet{}, err
		}
		return pool, userWallet, nil
	case transaction.KindSpend:
		revenue, err := s.directory.GetSystemWallet(ctx, assetCode, wallet.KindRevenue)
		if err != nil {
			return wallet.Wallet{}, wallet.Wallet{}, err
		}
		return userWallet, revenue, nil
	default:
		return wallet.Wallet{}, wallet.Wallet{}, validationErrorf("invalid transaction kind %q", kind)
	}
}

// GetUserBalances returns the user's per-asset balances.
func (s *Service) GetUserBalances(ctx context.Context, userID string) ([]wallet.AssetBalance, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.directory.ListUserBalances(ctx, user.ID)
}

// ListTransactions returns the user's transaction history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.transactions.ListByUser(ctx, user.ID)
}

func validateRequest(req Request) error {
	if req.UserID == "" {
		return validationErrorf("user id required")
	}
	if req.AssetCode == "" {
		return validationErrorf("asset code required")
	}
	if !req.Amount.IsPositive() {
		return validationErrorf("amount must be positive")
	}
	if req.IdempotencyKey == "" {
		return validationErrorf("idempotency key required")
	}
	return nil
}
