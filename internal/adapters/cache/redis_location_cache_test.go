package cache

import (
	"context"
	"location-tracker-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisLocationCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocationCache(client, ttl), mr
}

func TestRedisLocationCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	got, err := c.GetLatest(context.Background(), "13800138000")
	if err != nil || got != nil {
		t.Fatalf("GetLatest(miss) = %v, %v; want nil, nil", got, err)
	}
}

func TestRedisLocationCachePutGet(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	loc := &domain.Location{
		ID:        7,
		UserID:    3,
		Phone:     "13800138000",
		Latitude:  39.9093,
		Longitude: 116.3974,
		Accuracy:  12.5,
		Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := c.PutLatest(ctx, loc); err != nil {
		t.Fatalf("PutLatest: %v", err)
	}

	if !mr.Exists("location:latest:13800138000") {
		t.Fatalf("key location:latest:13800138000 not written")
	}
	if ttl := mr.TTL("location:latest:13800138000"); ttl != time.Hour {
		t.Fatalf("TTL = %v, want 1h", ttl)
	}

	got, err := c.GetLatest(ctx, loc.Phone)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got.ID != loc.ID || got.Latitude != loc.Latitude || !got.Timestamp.Equal(loc.Timestamp) {
		t.Fatalf("GetLatest = %+v, want %+v", got, loc)
	}
}

func TestRedisLocationCacheExpires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.PutLatest(ctx, &domain.Location{Phone: "13800138000", Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("PutLatest: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := c.GetLatest(ctx, "13800138000")
	if err != nil || got != nil {
		t.Fatalf("GetLatest after expiry = %v, %v; want nil, nil", got, err)
	}
}

func TestRedisLocationCacheCorruptValue(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	_ = mr.Set("location:latest:13800138000", "{not json")

	if _, err := c.GetLatest(context.Background(), "13800138000"); err == nil {
		t.Fatalf("GetLatest(corrupt) err = nil, want decode error")
	}
}
