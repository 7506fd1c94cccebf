package asset

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no asset exists for the code.
var ErrNotFound = errors.New("asset not found")

// Asset is a catalog entry for a value denomination. The catalog is seeded
// externally; this core only resolves codes.
type Asset struct {
	Code        string
	DisplayName string
	CreatedAt   time.Time
}

// Repository resolves assets by their unique code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (Asset, error)
}
