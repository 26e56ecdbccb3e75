package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	userID string
	err    error
}

func (v *stubValidator) ValidateToken(string) (string, error) {
	return v.userID, v.err
}

func authedProbe(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var got string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		assert.True(t, ok)
		got = id
	}), &got
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	next, got := authedProbe(t)
	h := NewAuthMiddleware(&stubValidator{userID: "u1"}).Handle(next)

	req := httptest.NewRequest(http.MethodGet, "/Account", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", *got)
}

func TestAuthMiddlewareQueryFallback(t *testing.T) {
	next, got := authedProbe(t)
	h := NewAuthMiddleware(&stubValidator{userID: "u1"}).Handle(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Account?token=some-token", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", *got)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	h := NewAuthMiddleware(&stubValidator{userID: "u1"}).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Account", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	h := NewAuthMiddleware(&stubValidator{err: errors.New("expired")}).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Account?token=bad", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
