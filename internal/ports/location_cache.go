package ports

import (
	"context"
	"location-tracker-service/internal/domain"
)

// Cache for the most recent fix of each phone.
// A miss is reported as (nil, nil).
type LocationCache interface {
	GetLatest(ctx context.Context, phone string) (*domain.Location, error)
	PutLatest(ctx context.Context, loc *domain.Location) error
}
