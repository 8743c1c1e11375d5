package ports

import (
	"context"
	"location-tracker-service/internal/domain"
)

// Port: a boundary for persisting and retrieving registered users.
type UserRepository interface {
	// Insert a user and return it with ID and CreatedAt populated.
	// Returns ErrDuplicate when the phone is already registered.
	CreateUser(ctx context.Context, phone string, passwordHash string) (*domain.User, error)
	// Returns ErrNotFound when no user has this phone.
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	// Newest first.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
