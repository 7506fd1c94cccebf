package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore stores transactions in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a transaction store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a transaction record. The unique index on idempotency_key
// turns a concurrent duplicate into ErrDuplicateKey.
func (s *PostgresStore) Create(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(tx.UserID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallet_transactions
        (id, kind, user_id, asset_code, amount, status, idempotency_key, reference, failure_reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txID, string(tx.Kind), userID, tx.AssetCode, tx.Amount, string(tx.Status),
		tx.IdempotencyKey, tx.Reference, string(tx.FailureReason), tx.CreatedAt.UTC(), tx.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Get fetches a transaction by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, txID)
	return scanTransaction(row)
}

// FindByIdempotencyKey fetches the transaction holding the key, if any.
func (s *PostgresStore) FindByIdempotencyKey(ctx context.Context, key string) (Transaction, error) {
	row := s.db.QueryRow(ctx, selectColumns+` WHERE idempotency_key = $1`, key)
	return scanTransaction(row)
}

// Finalize moves a PENDING transaction to a terminal status. The WHERE
// clause on status makes the transition atomic and unrepeatable.
func (s *PostgresStore) Finalize(ctx context.Context, id string, status Status, reason FailureReason, now time.Time) error {
	if !status.Terminal() {
		return ErrAlreadyFinal
	}
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `UPDATE wallet_transactions
        SET status = $2, failure_reason = $3, updated_at = $4
        WHERE id = $1 AND status = $5`,
		txID, string(status), string(reason), now.UTC(), string(StatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadyFinal
	}
	return nil
}

// ListPendingBefore returns stale PENDING transactions for recovery.
func (s *PostgresStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, selectColumns+` WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		string(StatusPending), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListByUser returns a user's transactions, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(ctx, selectColumns+` WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const selectColumns = `SELECT id, kind, user_id, asset_code, amount, status, idempotency_key, reference, failure_reason, created_at, updated_at
        FROM wallet_transactions`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var id, userID uuid.UUID
	var kind, status, reason string
	var createdAt, updatedAt time.Time
	err := row.Scan(&id, &kind, &userID, &tx.AssetCode, &tx.Amount, &status,
		&tx.IdempotencyKey, &tx.Reference, &reason, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.UserID = userID.String()
	tx.Kind = Kind(kind)
	tx.Status = Status(status)
	tx.FailureReason = FailureReason(reason)
	tx.CreatedAt = createdAt.UTC()
	tx.UpdatedAt = updatedAt.UTC()
	return tx, nil
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
