package domain

import (
	"time"

	"location-tracker-service/internal/coordinate"
)

// A single WGS-84 position fix reported by a user's device.
// Accuracy is the device-reported radius in meters (0 when unknown).
type Location struct {
	ID        int64
	UserID    int64
	Phone     string
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

// Return the fix as a coordinate point.
func (l Location) Point() coordinate.GeoPoint {
	return coordinate.GeoPoint{Lng: l.Longitude, Lat: l.Latitude}
}
