package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	require.True(t, CompareHashAndPassword(hash, "correct horse battery"))
	require.False(t, CompareHashAndPassword(hash, "wrong password"))
	require.False(t, CompareHashAndPassword("not-a-hash", "correct horse battery"))
}

func TestGenerateTokenOpaque(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
	// URL-safe: tokens go straight into query strings.
	require.NotContains(t, a, "+")
	require.NotContains(t, a, "/")
	require.NotContains(t, a, "=")
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	access, exp, err := m.GenerateAccessToken("acc-1", "sid-1")
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "sid-1", claims.SessionID)

	// Access tokens never validate against the refresh secret.
	_, err = m.ParseRefreshToken(access)
	require.Error(t, err)

	refresh, _, err := m.GenerateRefreshToken("acc-1", "sid-1")
	require.NoError(t, err)
	claims, err = m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, "sid-1", claims.SessionID)
}

func TestJWTRejectsExpired(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	token, _, err := m.GenerateAccessToken("acc-1", "sid-1")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	require.Error(t, err)
}
