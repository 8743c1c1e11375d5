package services

import (
	"context"
	"errors"
	"fmt"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/ports"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AccountOptions struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int // bcrypt.DefaultCost when zero
}

// Claims carried by session tokens issued at login.
type Claims struct {
	UserID int64  `json:"uid"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// AccountService handles registration, login and session tokens.
type AccountService struct {
	users    ports.UserRepository
	secret   []byte
	tokenTTL time.Duration
	cost     int
	now      func() time.Time
}

func NewAccountService(users ports.UserRepository, opts AccountOptions) *AccountService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AccountService{
		users:    users,
		secret:   []byte(opts.JWTSecret),
		tokenTTL: ttl,
		cost:     cost,
		now:      time.Now,
	}
}

func normalizeCredentials(phone, password string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return "", ErrMissingCredentials
	}
	if !domain.ValidPhone(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// Register a new account. The password is stored as a bcrypt hash.
func (s *AccountService) Register(ctx context.Context, phone, password string) (*domain.User, error) {
	phone, err := normalizeCredentials(phone, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, phone, string(hash))
	if errors.Is(err, ports.ErrDuplicate) {
		return nil, ErrPhoneTaken
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login verifies the password and returns the user with a signed session token.
func (s *AccountService) Login(ctx context.Context, phone, password string) (*domain.User, string, error) {
	phone, err := normalizeCredentials(phone, password)
	if err != nil {
		return nil, "", err
	}

	u, err := s.users.GetUserByPhone(ctx, phone)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrWrongPassword
		}
		return nil, "", fmt.Errorf("login: compare password: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CheckUser looks up an account by phone.
func (s *AccountService) CheckUser(ctx context.Context, phone string) (*domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || !domain.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	u, err := s.users.GetUserByPhone(ctx, phone)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	return u, nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AccountService) issueToken(u *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Phone:  u.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("login: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims.
func (s *AccountService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
