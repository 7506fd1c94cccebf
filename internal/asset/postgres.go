package asset

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository resolves assets from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByCode fetches an asset by its unique code.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (Asset, error) {
	row := r.db.QueryRow(ctx, `SELECT code, display_name, created_at FROM assets WHERE code = $1`, code)
	var a Asset
	var createdAt time.Time
	if err := row.Scan(&a.Code, &a.DisplayName, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, err
	}
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
