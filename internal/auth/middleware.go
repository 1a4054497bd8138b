package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
)

// Verifier re-checks a token's actor against the current account state and returns the
// actor as it stands now. A forbidden error means the account exists but may not act.
type Verifier interface {
	Verify(ctx context.Context, a Actor) (Actor, error)
}

// Middleware rejects requests without a valid bearer token and stores the Actor in the context.
// EventSource clients cannot set headers, so a "token" query parameter is accepted as well.
// With a Verifier, revoked or deleted accounts are turned away even while their token is unexpired.
func Middleware(t *Tokens, v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				unauthorized(w)
				return
			}
			a, err := t.Parse(raw)
			if err != nil {
				unauthorized(w)
				return
			}
			if v != nil {
				if a, err = v.Verify(r.Context(), a); err != nil {
					rejectVerified(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}

// RequireRole must run after Middleware.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := ActorFrom(r.Context())
			if !ok || a.Role != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","message":"access denied"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"not authorized, token failed"}`))
}

func rejectVerified(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindForbidden:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden","message":"account is not active"}`))
	case apperr.KindUnauthorized, apperr.KindNotFound:
		unauthorized(w)
	default:
		slog.ErrorContext(r.Context(), "verify actor", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error","message":"something went wrong"}`))
	}
}
