package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a wallet. USER wallets belong to a person; the three
// system kinds hold pooled funds and have no owner.
type Kind string

const (
	KindUser     Kind = "USER"
	KindTreasury Kind = "TREASURY"
	KindBonus    Kind = "BONUS"
	KindRevenue  Kind = "REVENUE"
)

// Valid reports whether the kind is one of the closed set.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindTreasury, KindBonus, KindRevenue:
		return true
	}
	return false
}

// System reports whether the kind denotes an ownerless system wallet.
func (k Kind) System() bool {
	return k == KindTreasury || k == KindBonus || k == KindRevenue
}

// Wallet is a balance-holding account for one (owner-or-system, asset) pair.
// At most one wallet exists per (owner, asset, kind), and at most one system
// wallet per (asset, kind). The balance is only mutated through the store's
// TryDebit and Credit primitives, so it can never go negative.
type Wallet struct {
	ID        string
	OwnerID   string // empty for system wallets
	AssetCode string
	Kind      Kind
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssetBalance is one row of a user's balance listing.
type AssetBalance struct {
	AssetCode string
	Balance   decimal.Decimal
}
