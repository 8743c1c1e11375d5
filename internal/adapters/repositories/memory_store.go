package repositories

import (
	"context"
	"fmt"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/ports"
	"sort"
	"sync"
	"time"
)

// MaxMemoryLocations bounds the in-memory history; the oldest fixes are evicted first.
const MaxMemoryLocations = 1000

// MemoryStore is a process-local ports.Store used when no database is reachable.
type MemoryStore struct {
	mu        sync.RWMutex
	users     []*domain.User
	byPhone   map[string]*domain.User
	locations []*domain.Location // append order, oldest first
	nextUser  int64
	nextLoc   int64
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byPhone: make(map[string]*domain.User),
		now:     time.Now,
	}
}

func (m *MemoryStore) Backend() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, phone string, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byPhone[phone]; ok {
		return nil, fmt.Errorf("create user phone=%q: %w", phone, ports.ErrDuplicate)
	}

	m.nextUser++
	u := &domain.User{ID: m.nextUser, Phone: phone, PasswordHash: passwordHash, CreatedAt: m.now().UTC()}
	m.users = append(m.users, u)
	m.byPhone[phone] = u

	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byPhone[phone]
	if !ok {
		return nil, fmt.Errorf("get user phone=%q: %w", phone, ports.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.User, 0, len(m.users))
	for i := len(m.users) - 1; i >= 0; i-- {
		cp := *m.users[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) SaveLocation(_ context.Context, loc domain.Location) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loc.Timestamp.IsZero() {
		loc.Timestamp = m.now()
	}
	loc.Timestamp = loc.Timestamp.UTC()

	m.nextLoc++
	loc.ID = m.nextLoc

	stored := loc
	m.locations = append(m.locations, &stored)
	if over := len(m.locations) - MaxMemoryLocations; over > 0 {
		m.locations = append(m.locations[:0:0], m.locations[over:]...)
	}

	return &loc, nil
}

func (m *MemoryStore) LatestLocation(ctx context.Context, phone string) (*domain.Location, error) {
	locs, _ := m.ListLocations(ctx, phone, 1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("latest location phone=%q: %w", phone, ports.ErrNotFound)
	}
	return locs[0], nil
}

func (m *MemoryStore) ListLocations(_ context.Context, phone string, limit int) ([]*domain.Location, error) {
	return m.newestFirst(limit, func(l *domain.Location) bool { return l.Phone == phone }), nil
}

func (m *MemoryStore) RecentLocations(_ context.Context, limit int) ([]*domain.Location, error) {
	return m.newestFirst(limit, func(*domain.Location) bool { return true }), nil
}

func (m *MemoryStore) newestFirst(limit int, keep func(*domain.Location) bool) []*domain.Location {
	m.mu.RLock()
	matched := make([]*domain.Location, 0, 16)
	for _, l := range m.locations {
		if keep(l) {
			cp := *l
			matched = append(matched, &cp)
		}
	}
	m.mu.RUnlock()

	// Same order as the SQL stores: timestamp DESC, id DESC.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
