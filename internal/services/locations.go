package services

import (
	"context"
	"errors"
	"fmt"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/platform/metrics"
	"location-tracker-service/internal/ports"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
	DefaultRecentLimit  = 50

	// Event sent to realtime clients after a fix is stored.
	EventLocationUpdated = "location-updated"
)

type SaveLocationRequest struct {
	UserID    int64
	Phone     string
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time // now when zero
}

// Payload of EventLocationUpdated.
type LocationEvent struct {
	LocationID int64     `json:"locationId"`
	UserID     int64     `json:"userId"`
	Phone      string    `json:"phone"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	Timestamp  time.Time `json:"timestamp"`
}

// A stored fix together with its position in a map provider's system.
type LocationView struct {
	Location *domain.Location
	Source   coordinate.MapSource
	System   coordinate.ReferenceSystem
	Display  coordinate.GeoPoint
}

type Track struct {
	Phone        string
	Source       coordinate.MapSource
	Points       int
	LengthMeters float64
	Features     *geojson.FeatureCollection
}

// LocationService stores fixes and serves them back, optionally shifted
// into the datum of a map provider. Cache and events may be nil.
type LocationService struct {
	locations ports.LocationRepository
	users     ports.UserRepository
	cache     ports.LocationCache
	events    ports.Broadcaster
}

func NewLocationService(
	locations ports.LocationRepository,
	users ports.UserRepository,
	cache ports.LocationCache,
	events ports.Broadcaster,
) *LocationService {
	return &LocationService{locations: locations, users: users, cache: cache, events: events}
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// Save validates and stores a fix, refreshes the cache and notifies
// realtime clients. The phone must belong to a registered user.
func (s *LocationService) Save(ctx context.Context, req SaveLocationRequest) (*domain.Location, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	if req.UserID == 0 || req.Phone == "" || req.Latitude == 0 || req.Longitude == 0 {
		return nil, ErrIncompleteLocation
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrIncompleteLocation)
	}

	u, err := s.users.GetUserByPhone(ctx, req.Phone)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}

	saved, err := s.locations.SaveLocation(ctx, domain.Location{
		UserID:    u.ID,
		Phone:     u.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	metrics.LocationsSaved.Inc()

	s.refreshCache(ctx, saved)

	if s.events != nil {
		s.events.Broadcast(EventLocationUpdated, LocationEvent{
			LocationID: saved.ID,
			UserID:     saved.UserID,
			Phone:      saved.Phone,
			Latitude:   saved.Latitude,
			Longitude:  saved.Longitude,
			Accuracy:   saved.Accuracy,
			Timestamp:  saved.Timestamp,
		})
	}

	return saved, nil
}

// refreshCache replaces the cached fix unless the cache already holds a newer one.
func (s *LocationService) refreshCache(ctx context.Context, loc *domain.Location) {
	if s.cache == nil {
		return
	}

	cur, err := s.cache.GetLatest(ctx, loc.Phone)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("phone", loc.Phone).Msg("location cache read failed")
	}
	if cur != nil && cur.Timestamp.After(loc.Timestamp) {
		return
	}

	if err := s.cache.PutLatest(ctx, loc); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("phone", loc.Phone).Msg("location cache write failed")
	}
}

// Latest returns the newest fix for phone, reading through the cache.
func (s *LocationService) Latest(ctx context.Context, phone string) (*domain.Location, error) {
	phone = strings.TrimSpace(phone)
	if !domain.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	if s.cache != nil {
		loc, err := s.cache.GetLatest(ctx, phone)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("phone", phone).Msg("location cache read failed")
		}
		if loc != nil {
			return loc, nil
		}
	}

	loc, err := s.locations.LatestLocation(ctx, phone)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest location: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.PutLatest(ctx, loc); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("phone", phone).Msg("location cache write failed")
		}
	}
	return loc, nil
}

// LatestFor returns the newest fix along with its position on the given
// provider's map. Unknown providers get the WGS-84 position.
func (s *LocationService) LatestFor(ctx context.Context, phone string, source coordinate.MapSource) (*LocationView, error) {
	loc, err := s.Latest(ctx, phone)
	if err != nil {
		return nil, err
	}

	return &LocationView{
		Location: loc,
		Source:   source,
		System:   source.System(),
		Display:  coordinate.ConvertForMapSource(loc.Longitude, loc.Latitude, source),
	}, nil
}

// History returns up to limit fixes for phone, newest first.
func (s *LocationService) History(ctx context.Context, phone string, limit int) ([]*domain.Location, error) {
	phone = strings.TrimSpace(phone)
	if !domain.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	locs, err := s.locations.ListLocations(ctx, phone, clampLimit(limit, DefaultHistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}
	return locs, nil
}

// Track builds a GeoJSON FeatureCollection of a user's recent path in the
// datum of source: one LineString for the path and one Point per fix, oldest
// first. LengthMeters is measured on the stored WGS-84 fixes.
func (s *LocationService) Track(ctx context.Context, phone string, limit int, source coordinate.MapSource) (*Track, error) {
	locs, err := s.History(ctx, phone, limit)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, ErrLocationNotFound
	}

	raw := make([]coordinate.GeoPoint, 0, len(locs))
	line := make(orb.LineString, 0, len(locs))
	fc := geojson.NewFeatureCollection()

	for i := len(locs) - 1; i >= 0; i-- {
		l := locs[i]
		raw = append(raw, l.Point())

		p := coordinate.ConvertForMapSource(l.Longitude, l.Latitude, source).Orb()
		line = append(line, p)

		f := geojson.NewFeature(p)
		f.Properties["id"] = l.ID
		f.Properties["accuracy"] = l.Accuracy
		f.Properties["timestamp"] = l.Timestamp.Format(time.RFC3339Nano)
		fc.Append(f)
	}

	length := coordinate.PathLength(raw)

	if len(line) >= 2 {
		f := geojson.NewFeature(line)
		f.Properties["phone"] = phone
		f.Properties["system"] = source.System().String()
		f.Properties["length_m"] = length
		fc.Append(f)
	}

	return &Track{
		Phone:        phone,
		Source:       source,
		Points:       len(locs),
		LengthMeters: length,
		Features:     fc,
	}, nil
}

// Recent returns the newest fixes across all users.
func (s *LocationService) Recent(ctx context.Context, limit int) ([]*domain.Location, error) {
	locs, err := s.locations.RecentLocations(ctx, clampLimit(limit, DefaultRecentLimit))
	if err != nil {
		return nil, fmt.Errorf("recent locations: %w", err)
	}
	return locs, nil
}
