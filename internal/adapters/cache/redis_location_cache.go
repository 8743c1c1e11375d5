package cache

import (
	"context"
	"errors"
	"fmt"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/platform/obs"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const latestKeyPrefix = "location:latest:"

type cachedLocation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Phone     string    `json:"phone"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisLocationCache keeps the latest fix per phone in Redis.
type RedisLocationCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocationCache(client redis.UniversalClient, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the server answers PING.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func latestKey(phone string) string { return latestKeyPrefix + phone }

func (c *RedisLocationCache) GetLatest(ctx context.Context, phone string) (_ *domain.Location, err error) {
	defer obs.Time(ctx, "location.cache.GetLatest")(&err)

	raw, err := c.client.Get(ctx, latestKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest location phone=%q: %w", phone, err)
	}

	var cl cachedLocation
	if err := json.Unmarshal(raw, &cl); err != nil {
		return nil, fmt.Errorf("decode cached location phone=%q: %w", phone, err)
	}

	return &domain.Location{
		ID:        cl.ID,
		UserID:    cl.UserID,
		Phone:     cl.Phone,
		Latitude:  cl.Latitude,
		Longitude: cl.Longitude,
		Accuracy:  cl.Accuracy,
		Timestamp: cl.Timestamp,
	}, nil
}

func (c *RedisLocationCache) PutLatest(ctx context.Context, loc *domain.Location) (err error) {
	defer obs.Time(ctx, "location.cache.PutLatest")(&err)

	if loc == nil {
		return errors.New("put latest location: location is nil")
	}

	raw, err := json.Marshal(cachedLocation{
		ID:        loc.ID,
		UserID:    loc.UserID,
		Phone:     loc.Phone,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Accuracy:  loc.Accuracy,
		Timestamp: loc.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encode location phone=%q: %w", loc.Phone, err)
	}

	if err := c.client.Set(ctx, latestKey(loc.Phone), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put latest location phone=%q: %w", loc.Phone, err)
	}
	return nil
}
