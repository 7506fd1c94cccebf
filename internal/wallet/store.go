package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance indicates a conditional debit was refused
	// because the resulting balance would be negative.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrDuplicateWallet indicates a wallet already exists for the
	// (owner, asset, kind) triple.
	ErrDuplicateWallet = errors.New("wallet already exists")
)

// Store persists wallets and exposes the two atomic balance primitives.
// TryDebit and Credit are each a single indivisible round-trip; no caller
// ever reads a balance and writes it back.
type Store interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	FindUserWallet(ctx context.Context, ownerID, assetCode string) (Wallet, error)
	FindSystemWallet(ctx context.Context, assetCode string, kind Kind) (Wallet, error)

	// TryDebit subtracts amount from the wallet balance iff the result
	// stays non-negative. Returns ErrInsufficientBalance when the wallet
	// is missing or the balance does not cover the amount.
	TryDebit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error

	// Credit adds amount to the wallet balance unconditionally. Returns
	// ErrNotFound when the wallet does not exist.
	Credit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error

	// ListUserBalances returns (asset, balance) rows for every wallet the
	// user owns, ordered by asset code.
	ListUserBalances(ctx context.Context, ownerID string) ([]AssetBalance, error)
}
