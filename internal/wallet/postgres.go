package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PostgresStore stores wallets in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a wallet store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a wallet record. The unique index on
// (owner_id, asset_code, kind) rejects duplicates.
func (s *PostgresStore) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	var ownerID *uuid.UUID
	if w.OwnerID != "" {
		parsed, err := uuid.Parse(w.OwnerID)
		if err != nil {
			return err
		}
		ownerID = &parsed
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, asset_code, kind, balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		walletID, ownerID, w.AssetCode, string(w.Kind), w.Balance, w.CreatedAt.UTC(), w.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateWallet
		}
		return err
	}
	return nil
}

// Get fetches a wallet by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, asset_code, kind, balance, created_at, updated_at
        FROM wallets WHERE id = $1`, walletID)
	return scanWallet(row)
}

// FindUserWallet fetches the USER wallet for an (owner, asset) pair.
func (s *PostgresStore) FindUserWallet(ctx context.Context, ownerID, assetCode string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, asset_code, kind, balance, created_at, updated_at
        FROM wallets WHERE owner_id = $1 AND asset_code = $2 AND kind = $3`,
		owner, assetCode, string(KindUser))
	return scanWallet(row)
}

// FindSystemWallet fetches the ownerless wallet for an (asset, kind) pair.
func (s *PostgresStore) FindSystemWallet(ctx context.Context, assetCode string, kind Kind) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, asset_code, kind, balance, created_at, updated_at
        FROM wallets WHERE owner_id IS NULL AND asset_code = $1 AND kind = $2`,
		assetCode, string(kind))
	return scanWallet(row)
}

// TryDebit performs the conditional decrement in a single UPDATE so the
// balance check and the write cannot be separated by a concurrent writer.
func (s *PostgresStore) TryDebit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrInsufficientBalance
	}
	tag, err := s.db.Exec(ctx, `UPDATE wallets
        SET balance = balance - $2, updated_at = $3
        WHERE id = $1 AND balance >= $2`,
		walletID, amount, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit performs the unconditional increment.
func (s *PostgresStore) Credit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `UPDATE wallets
        SET balance = balance + $2, updated_at = $3
        WHERE id = $1`,
		walletID, amount, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUserBalances returns the per-asset balances of a user's wallets.
func (s *PostgresStore) ListUserBalances(ctx context.Context, ownerID string) ([]AssetBalance, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT asset_code, balance FROM wallets
        WHERE owner_id = $1 ORDER BY asset_code`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []AssetBalance
	for rows.Next() {
		var b AssetBalance
		if err := rows.Scan(&b.AssetCode, &b.Balance); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var w Wallet
	var id uuid.UUID
	var ownerID *uuid.UUID
	var kind string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&id, &ownerID, &w.AssetCode, &kind, &w.Balance, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	if ownerID != nil {
		w.OwnerID = ownerID.String()
	}
	w.Kind = Kind(kind)
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
