package user

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackmate/internal/cache"
)

// mapCache is an in-memory cache.Cache for service tests.
type mapCache struct {
	values map[string]string
	sets   int
	dels   int
}

func newMapCache() *mapCache { return &mapCache{values: make(map[string]string)} }

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	c.dels++
	return nil
}

func (c *mapCache) Close() error { return nil }

func newTokenService(secret string) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(nil, newMapCache(), nil, secret, log)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenService("test-secret")

	auth, err := svc.authResponse(&User{ID: "u1", UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)

	userID, err := svc.ValidateToken(auth.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	auth, err := newTokenService("secret-a").authResponse(&User{ID: "u1"})
	require.NoError(t, err)

	_, err = newTokenService("secret-b").ValidateToken(auth.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := newTokenService("test-secret").ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTokenService("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "trackmate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	ss, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(ss)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestProfileServedFromCache(t *testing.T) {
	c := newMapCache()
	c.values[profileCacheKey("u1")] = `{"id":"u1","userName":"alice","profileAvatar":"a.png"}`

	log := logrus.New()
	log.SetOutput(io.Discard)
	// nil repository: a cache hit must never reach the database.
	svc := NewService(nil, c, nil, "test-secret", log)

	p, err := svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "alice", p.UserName)
	assert.Equal(t, "a.png", p.ProfileAvatar)
	assert.Zero(t, c.sets)
}
