package driven

import (
	"context"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
)

// UserStore defines the driven port for user persistence. Email lookups
// are case-insensitive; implementations store emails lowercased.
type UserStore interface {
	Create(ctx context.Context, user model.User) error

	// GetByID retrieves a user by id. Returns nil, nil if absent.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmail retrieves a user by email, case-insensitively.
	// Returns nil, nil if absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update replaces the user's mutable fields (password hash, expiry
	// bookkeeping, reset flag).
	Update(ctx context.Context, user model.User) error
}
