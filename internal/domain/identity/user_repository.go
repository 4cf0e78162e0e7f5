package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByUsername looks a user up across companies; usernames are globally unique
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) error
	// UpdateLoginState persists status, failure count, lock and last login
	UpdateLoginState(ctx context.Context, user *User) error
}
