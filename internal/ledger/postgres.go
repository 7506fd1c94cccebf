package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRecorder persists ledger entries in PostgreSQL.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder constructs a Postgres-backed recorder.
func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record appends a single entry.
func (r *PostgresRecorder) Record(ctx context.Context, transactionID, walletID string, kind EntryKind, amount decimal.Decimal, now time.Time) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("invalid entry kind %q", kind)
	}
	if !amount.IsPositive() {
		return Entry{}, fmt.Errorf("entry amount must be positive")
	}
	txID, err := uuid.Parse(transactionID)
	if err != nil {
		return Entry{}, err
	}
	wID, err := uuid.Parse(walletID)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		WalletID:      walletID,
		Kind:          kind,
		Amount:        amount,
		CreatedAt:     now.UTC(),
	}
	_, err = r.db.Exec(ctx, `INSERT INTO ledger_entries (id, transaction_id, wallet_id, kind, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.MustParse(entry.ID), txID, wID, string(kind), amount, entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListByTransaction returns all entries for a transaction in insertion order.
func (r *PostgresRecorder) ListByTransaction(ctx context.Context, transactionID string) ([]Entry, error) {
	txID, err := uuid.Parse(transactionID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, transaction_id, wallet_id, kind, amount, created_at
        FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at, kind DESC`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id, tx, wID uuid.UUID
		var kind string
		var createdAt time.Time
		if err := rows.Scan(&id, &tx, &wID, &kind, &e.Amount, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.TransactionID = tx.String()
		e.WalletID = wID.String()
		e.Kind = EntryKind(kind)
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WalletNet computes sum(CREDIT) - sum(DEBIT) for a wallet.
func (r *PostgresRecorder) WalletNet(ctx context.Context, walletID string) (decimal.Decimal, error) {
	wID, err := uuid.Parse(walletID)
	if err != nil {
		return decimal.Zero, err
	}
	const query = `
        SELECT COALESCE(SUM(CASE WHEN kind = 'CREDIT' THEN amount ELSE -amount END), 0)
        FROM ledger_entries WHERE wallet_id = $1`
	var net decimal.Decimal
	if err := r.db.QueryRow(ctx, query, wID).Scan(&net); err != nil {
		return decimal.Zero, err
	}
	return net, nil
}
