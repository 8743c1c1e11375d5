package ports

import (
	"context"
	"location-tracker-service/internal/domain"
)

// Port: a boundary for the location history of users.
type LocationRepository interface {
	// Store a fix and return it with ID populated. A zero Timestamp is set to now.
	SaveLocation(ctx context.Context, loc domain.Location) (*domain.Location, error)
	// Most recent fix for a phone. Returns ErrNotFound when there is none.
	LatestLocation(ctx context.Context, phone string) (*domain.Location, error)
	// Up to limit fixes for a phone, newest first.
	ListLocations(ctx context.Context, phone string, limit int) ([]*domain.Location, error)
	// Up to limit fixes across all users, newest first.
	RecentLocations(ctx context.Context, limit int) ([]*domain.Location, error)
}

// A storage backend serving both repositories.
type Store interface {
	UserRepository
	LocationRepository
	// Short backend name reported by the health endpoint.
	Backend() string
	Close() error
}
