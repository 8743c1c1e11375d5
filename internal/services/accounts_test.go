package services

import (
	"context"
	"errors"
	"location-tracker-service/internal/adapters/repositories"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newAccountService() *AccountService {
	return NewAccountService(repositories.NewMemoryStore(), AccountOptions{
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	u, err := s.Register(ctx, " 13800138000 ", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Phone != "13800138000" {
		t.Fatalf("Register stored phone %q, want trimmed", u.Phone)
	}
	if u.PasswordHash == "secret" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("password not stored as a bcrypt hash: %q", u.PasswordHash)
	}

	got, token, err := s.Login(ctx, "13800138000", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || token == "" {
		t.Fatalf("Login = %+v, %q", got, token)
	}

	claims, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != u.ID || claims.Phone != u.Phone || claims.Subject == "" {
		t.Fatalf("claims = %+v, want user %d", claims, u.ID)
	}
}

func TestRegisterErrors(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	cases := []struct {
		phone, password string
		want            error
	}{
		{"", "secret", ErrMissingCredentials},
		{"13800138000", "", ErrMissingCredentials},
		{"12345", "secret", ErrInvalidPhone},
		{"23800138000", "secret", ErrInvalidPhone},
	}
	for _, tc := range cases {
		if _, err := s.Register(ctx, tc.phone, tc.password); !errors.Is(err, tc.want) {
			t.Errorf("Register(%q, %q) err = %v, want %v", tc.phone, tc.password, err, tc.want)
		}
	}

	if _, err := s.Register(ctx, "13800138000", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register(ctx, "13800138000", "again"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("duplicate Register err = %v, want ErrPhoneTaken", err)
	}
}

func TestLoginErrors(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	if _, _, err := s.Login(ctx, "13800138000", "secret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Login(unknown) err = %v, want ErrUserNotFound", err)
	}

	if _, err := s.Register(ctx, "13800138000", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "13800138000", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("Login(wrong password) err = %v, want ErrWrongPassword", err)
	}
}

func TestCheckUser(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	if _, err := s.CheckUser(ctx, "abc"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("CheckUser(abc) err = %v, want ErrInvalidPhone", err)
	}
	if _, err := s.CheckUser(ctx, "13800138000"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("CheckUser(unknown) err = %v, want ErrUserNotFound", err)
	}

	if _, err := s.Register(ctx, "13800138000", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := s.CheckUser(ctx, "13800138000")
	if err != nil || u.Phone != "13800138000" {
		t.Fatalf("CheckUser = %+v, %v", u, err)
	}
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	s := newAccountService()
	ctx := context.Background()

	if _, err := s.Register(ctx, "13800138000", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, token, err := s.Login(ctx, "13800138000", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseToken(expired) err = %v, want ErrInvalidToken", err)
	}

	other := NewAccountService(repositories.NewMemoryStore(), AccountOptions{JWTSecret: "other"})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseToken(foreign secret) err = %v, want ErrInvalidToken", err)
	}
}
