package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok := NewTokens([]byte("secret"), time.Hour)

	raw, err := tok.Issue(Actor{ID: "u1", Role: RoleSeller})
	require.NoError(t, err)

	a, err := tok.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: "u1", Role: RoleSeller}, a)
}

func TestParseRejectsExpired(t *testing.T) {
	tok := NewTokens([]byte("secret"), time.Minute)
	tok.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tok.Issue(Actor{ID: "u1", Role: RoleAdmin})
	require.NoError(t, err)

	tok.now = time.Now
	_, err = tok.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	raw, err := NewTokens([]byte("a"), time.Hour).Issue(Actor{ID: "u1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokens([]byte("b"), time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasher(t *testing.T) {
	h := Hasher{Cost: 4}
	hash, err := h.Hash("password123")
	require.NoError(t, err)

	assert.True(t, h.Compare(hash, "password123"))
	assert.False(t, h.Compare(hash, "wrong"))
}

func TestMiddleware(t *testing.T) {
	tok := NewTokens([]byte("secret"), time.Hour)
	raw, _ := tok.Issue(Actor{ID: "admin-1", Role: RoleAdmin})

	var got Actor
	h := Middleware(tok, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", got.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+raw, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithActor(req.Context(), Actor{ID: "s1", Role: RoleSeller}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type stubVerifier map[string]error

func (v stubVerifier) Verify(ctx context.Context, a Actor) (Actor, error) {
	if err := v[a.ID]; err != nil {
		return Actor{}, err
	}
	return Actor{ID: a.ID, Role: RoleSeller}, nil
}

func TestMiddlewareRechecksAccount(t *testing.T) {
	tok := NewTokens([]byte("secret"), time.Hour)
	v := stubVerifier{
		"revoked": apperr.Forbidden("account is not approved"),
		"deleted": apperr.Unauthorized("account no longer exists"),
		"broken":  errors.New("db down"),
	}

	var got Actor
	h := Middleware(tok, v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFrom(r.Context())
	}))
	call := func(id string, role Role) int {
		raw, err := tok.Issue(Actor{ID: id, Role: role})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("active", RoleAdmin))
	assert.Equal(t, RoleSeller, got.Role, "role comes from the account, not the token")
	assert.Equal(t, http.StatusForbidden, call("revoked", RoleSeller))
	assert.Equal(t, http.StatusUnauthorized, call("deleted", RoleSeller))
	assert.Equal(t, http.StatusInternalServerError, call("broken", RoleSeller))
}
