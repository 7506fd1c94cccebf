package transfer

import (
	"errors"
	"fmt"

	"github.com/mint-pay/mint_pay/internal/transaction"
)

var (
	// ErrDuplicateRequest indicates the idempotency key was already used
	// by a successful or in-flight request.
	ErrDuplicateRequest = errors.New("request already processed")

	// ErrPriorFailureReplay indicates the idempotency key belongs to a
	// previously failed request. The engine never silently retries a
	// failed key; the caller must use a fresh one.
	ErrPriorFailureReplay = errors.New("previous request with this key failed")

	// ErrInsufficientFunds indicates a SPEND debit was refused.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTreasuryInsufficient indicates the treasury could not fund a top-up.
	ErrTreasuryInsufficient = errors.New("treasury balance insufficient")

	// ErrBonusPoolExhausted indicates the bonus pool could not fund a grant.
	ErrBonusPoolExhausted = errors.New("bonus pool exhausted")

	// ErrDestinationUnavailable indicates the credit step failed and the
	// debit was compensated.
	ErrDestinationUnavailable = errors.New("destination wallet unavailable")
)

// ValidationError marks malformed input rejected before any mutation. The
// caller must correct the request; no transaction record is persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether the error belongs to the conflict class
// (duplicate key or refused debit), which maps to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrPriorFailureReplay) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrTreasuryInsufficient) ||
		errors.Is(err, ErrBonusPoolExhausted) ||
		errors.Is(err, ErrDestinationUnavailable)
}

// debitFailureReason classifies a refused debit by the transaction kind: a
// SPEND debits the user, a TOP_UP debits the treasury, a BONUS debits the
// bonus pool.
func debitFailureReason(kind transaction.Kind) transaction.FailureReason {
	switch kind {
	case transaction.KindTopUp:
		return transaction.ReasonTreasuryInsufficient
	case transaction.KindBonus:
		return transaction.ReasonBonusPoolExhausted
	default:
		return transaction.ReasonInsufficientFunds
	}
}

// reasonError maps a persisted failure reason back to the caller-facing
// conflict error.
func reasonError(reason transaction.FailureReason) error {
	switch reason {
	case transaction.ReasonTreasuryInsufficient:
		return ErrTreasuryInsufficient
	case transaction.ReasonBonusPoolExhausted:
		return ErrBonusPoolExhausted
	case transaction.ReasonDestinationUnavailable:
		return ErrDestinationUnavailable
	default:
		return ErrInsufficientFunds
	}
}
