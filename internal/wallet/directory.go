package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Directory resolves wallets for transfer orchestration. User wallets are
// created lazily on first reference; system wallets are provisioned outside
// this service and their absence is a configuration defect.
type Directory struct {
	store Store
}

// NewDirectory builds a directory over the given store.
func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

// GetOrCreateUserWallet returns the user's wallet for the asset, creating a
// zero-balance one on first use. Concurrent first access is safe: a losing
// insert hits the (owner, asset, kind) unique constraint and falls back to
// fetching the winner's row.
func (d *Directory) GetOrCreateUserWallet(ctx context.Context, ownerID, assetCode string, now time.Time) (Wallet, error) {
	w, err := d.store.FindUserWallet(ctx, ownerID, assetCode)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	w = Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		AssetCode: assetCode,
		Kind:      KindUser,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.store.Create(ctx, w); err != nil {
		if errors.Is(err, ErrDuplicateWallet) {
			return d.store.FindUserWallet(ctx, ownerID, assetCode)
		}
		return Wallet{}, err
	}
	return w, nil
}

// ListUserBalances returns the per-asset balances of the user's wallets.
func (d *Directory) ListUserBalances(ctx context.Context, ownerID string) ([]AssetBalance, error) {
	return d.store.ListUserBalances(ctx, ownerID)
}

// GetSystemWallet resolves the ownerless wallet for (asset, kind). It never
// creates one: seeding system wallets is a bootstrap concern.
func (d *Directory) GetSystemWallet(ctx context.Context, assetCode string, kind Kind) (Wallet, error) {
	if !kind.System() {
		return Wallet{}, fmt.Errorf("kind %s is not a system wallet kind", kind)
	}
	w, err := d.store.FindSystemWallet(ctx, assetCode, kind)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Wallet{}, fmt.Errorf("system wallet missing: asset=%s kind=%s: %w", assetCode, kind, ErrNotFound)
		}
		return Wallet{}, err
	}
	return w, nil
}
