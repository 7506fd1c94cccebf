package transaction

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateKey indicates the idempotency key is already taken. The
	// uniqueness constraint behind this error is the authoritative
	// at-most-once guard.
	ErrDuplicateKey = errors.New("duplicate idempotency key")

	// ErrAlreadyFinal indicates an attempt to finalize a transaction that
	// has left PENDING. Terminal records are immutable.
	ErrAlreadyFinal = errors.New("transaction already finalized")
)

// Store persists transactions keyed by id with a uniqueness constraint on
// the idempotency key.
type Store interface {
	// Create inserts a transaction. Returns ErrDuplicateKey when the
	// idempotency key is already present.
	Create(ctx context.Context, tx Transaction) error

	Get(ctx context.Context, id string) (Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (Transaction, error)

	// Finalize transitions a PENDING transaction to SUCCESS or FAILED.
	// Returns ErrAlreadyFinal when the transaction is no longer PENDING.
	Finalize(ctx context.Context, id string, status Status, reason FailureReason, now time.Time) error

	// ListPendingBefore returns transactions still PENDING with an update
	// timestamp older than the cutoff, the feed for the recovery sweep.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Transaction, error)

	// ListByUser returns the user's transactions, newest first.
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
}
