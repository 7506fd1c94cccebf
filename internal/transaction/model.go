package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names the logical operation a transaction performs.
type Kind string

const (
	KindTopUp Kind = "TOP_UP"
	KindBonus Kind = "BONUS"
	KindSpend Kind = "SPEND"
)

// Valid reports whether the kind is one of the closed set.
func (k Kind) Valid() bool {
	switch k {
	case KindTopUp, KindBonus, KindSpend:
		return true
	}
	return false
}

// Status is the lifecycle state of a transaction. PENDING is the only
// non-terminal state; SUCCESS and FAILED records are immutable.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// FailureReason explains why a transaction reached FAILED.
type FailureReason string

const (
	ReasonNone                   FailureReason = ""
	ReasonInsufficientFunds      FailureReason = "INSUFFICIENT_FUNDS"
	ReasonTreasuryInsufficient   FailureReason = "TREASURY_INSUFFICIENT"
	ReasonBonusPoolExhausted     FailureReason = "BONUS_POOL_EXHAUSTED"
	ReasonDestinationUnavailable FailureReason = "DESTINATION_UNAVAILABLE"
	ReasonLedgerWriteFailed      FailureReason = "LEDGER_WRITE_FAILED"
	ReasonRecoveryCompensated    FailureReason = "RECOVERY_COMPENSATED"
	ReasonRecoveryExpired        FailureReason = "RECOVERY_EXPIRED"
)

// Transaction is the persisted record of one logical request attempt. It is
// created once, PENDING, and finalized exactly once to SUCCESS or FAILED.
type Transaction struct {
	ID             string
	Kind           Kind
	UserID         string
	AssetCode      string
	Amount         decimal.Decimal
	Status         Status
	IdempotencyKey string
	Reference      string // caller-supplied reason/reference, free text
	FailureReason  FailureReason
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
