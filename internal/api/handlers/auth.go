package handlers

import (
	"context"
	"location-tracker-service/internal/services"
	"net/http"
	"strings"
)

type claimsKey struct{}

// Authenticator checks "Authorization: Bearer <token>" headers against
// tokens issued at login.
type Authenticator struct {
	Accounts *services.AccountService
}

// Require rejects requests without a valid session token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return a.middleware(next, true)
}

// Optional lets anonymous requests through but rejects a bad token.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.middleware(next, false)
}

func (a *Authenticator) middleware(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			if required {
				writeServiceError(w, r, "authenticate", services.ErrMissingToken)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.Accounts.ParseToken(token)
		if err != nil {
			writeServiceError(w, r, "authenticate", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// ClaimsFromContext returns the session attached by Authenticator, if any.
func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*services.Claims)
	return c, ok
}
