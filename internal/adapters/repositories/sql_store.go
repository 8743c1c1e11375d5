package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/platform/obs"
	"location-tracker-service/internal/ports"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type dialect int

const (
	dialectSqlite dialect = iota
	dialectPostgres
)

// SQLStore implements ports.Store on database/sql for SQLite and Postgres.
// Queries are written with '?' placeholders and rebound for Postgres.
type SQLStore struct {
	DB      *sql.DB
	dialect dialect
}

func NewSqliteStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: dialectSqlite}
}

func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, dialect: dialectPostgres}
}

func (s *SQLStore) Backend() string {
	if s.dialect == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (s *SQLStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// rebind rewrites '?' placeholders to $1..$n for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}

	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLStore) CreateUser(ctx context.Context, phone string, passwordHash string) (_ *domain.User, err error) {
	defer obs.Time(ctx, "store.CreateUser")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	createdAt := time.Now().UTC()
	q := s.rebind(`
	INSERT INTO users (phone, password, created_at)
	VALUES (?, ?, ?)
	RETURNING id;
	`)

	var id int64
	if err := s.DB.QueryRowContext(ctx, q, phone, passwordHash, createdAt).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user phone=%q: %w", phone, ports.ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: insert users row: %w", err)
	}

	return &domain.User{ID: id, Phone: phone, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

func (s *SQLStore) GetUserByPhone(ctx context.Context, phone string) (_ *domain.User, err error) {
	defer obs.Time(ctx, "store.GetUserByPhone")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	q := s.rebind(`
	SELECT id, phone, password, created_at
	FROM users
	WHERE phone = ?;
	`)

	var u domain.User
	err = s.DB.QueryRowContext(ctx, q, phone).Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user phone=%q: %w", phone, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: query users table: %w", err)
	}

	return &u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) (_ []*domain.User, err error) {
	defer obs.Time(ctx, "store.ListUsers")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT id, phone, password, created_at
	FROM users
	ORDER BY created_at DESC, id DESC;
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: query users table: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("list users: scan row: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: row iteration: %w", err)
	}

	return users, nil
}

func (s *SQLStore) SaveLocation(ctx context.Context, loc domain.Location) (_ *domain.Location, err error) {
	defer obs.Time(ctx, "store.SaveLocation")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}
	loc.Timestamp = loc.Timestamp.UTC()

	q := s.rebind(`
	INSERT INTO locations (user_id, phone, latitude, longitude, accuracy, timestamp)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id;
	`)

	row := s.DB.QueryRowContext(ctx, q, loc.UserID, loc.Phone, loc.Latitude, loc.Longitude, loc.Accuracy, loc.Timestamp)
	if err := row.Scan(&loc.ID); err != nil {
		return nil, fmt.Errorf("save location phone=%q: %w", loc.Phone, err)
	}

	return &loc, nil
}

func (s *SQLStore) LatestLocation(ctx context.Context, phone string) (*domain.Location, error) {
	locs, err := s.ListLocations(ctx, phone, 1)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("latest location phone=%q: %w", phone, ports.ErrNotFound)
	}
	return locs[0], nil
}

func (s *SQLStore) ListLocations(ctx context.Context, phone string, limit int) (_ []*domain.Location, err error) {
	defer obs.Time(ctx, "store.ListLocations")(&err)

	return s.queryLocations(ctx, `
	SELECT id, COALESCE(user_id, 0), phone, latitude, longitude, accuracy, timestamp
	FROM locations
	WHERE phone = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?;
	`, phone, limit)
}

func (s *SQLStore) RecentLocations(ctx context.Context, limit int) (_ []*domain.Location, err error) {
	defer obs.Time(ctx, "store.RecentLocations")(&err)

	return s.queryLocations(ctx, `
	SELECT id, COALESCE(user_id, 0), phone, latitude, longitude, accuracy, timestamp
	FROM locations
	ORDER BY timestamp DESC, id DESC
	LIMIT ?;
	`, limit)
}

func (s *SQLStore) queryLocations(ctx context.Context, q string, args ...any) ([]*domain.Location, error) {
	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: query locations table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Location, 0, 16)
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.UserID, &l.Phone, &l.Latitude, &l.Longitude, &l.Accuracy, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}

	return out, nil
}
