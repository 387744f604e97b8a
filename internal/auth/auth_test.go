package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := newManager(t)

	token, expiresAt, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	session, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := newManager(t)
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := noSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := newManager(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager("  ", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenManager("secret", 0)
	assert.Error(t, err)
}

func TestSessionResolver(t *testing.T) {
	m := newManager(t)
	resolver := NewSessionResolver(m)
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/spaces", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		session, ok := resolver.Resolve(req)
		assert.True(t, ok)
		assert.Equal(t, "user-1", session.UserID)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/spaces", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		session, ok := resolver.Resolve(req)
		assert.True(t, ok)
		assert.Equal(t, "user-1", session.UserID)
	})

	t.Run("stale cookie falls back to header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/spaces", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
		req.Header.Set("Authorization", "bearer "+token)
		_, ok := resolver.Resolve(req)
		assert.True(t, ok)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/spaces", nil)
		session, ok := resolver.Resolve(req)
		assert.False(t, ok)
		assert.Empty(t, session.UserID)
	})
}
