package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/safehaven/safehaven-api/internal/services"
)

type authCtxKey int

const userKey authCtxKey = 7

// Authenticator resolves a bearer token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.User, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// WithAuth attaches the authenticated user to the request context when a valid
// bearer token is present. Requests without one pass through unchanged.
func WithAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerToken(r); tok != "" && auth != nil {
				if u, err := auth.Authenticate(r.Context(), tok); err == nil && u != nil {
					next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, string(services.ErrorUnauthorized), "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithUser(ctx context.Context, u *services.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*services.User, bool) {
	u, ok := ctx.Value(userKey).(*services.User)
	return u, ok && u != nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": code, "message": msg}})
}
