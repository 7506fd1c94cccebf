package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no user exists for the identifier.
var ErrNotFound = errors.New("user not found")

// User is the acting party behind wallet operations. Account management
// lives outside this service; the core only resolves users by id.
type User struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

// Repository resolves users.
type Repository interface {
	FindByID(ctx context.Context, id string) (User, error)
}
