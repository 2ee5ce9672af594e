package jwt

import (
	"testing"
	"time"

	jwtLib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef-test")

// TestSignAndParse verifies a signed token round trips its claims.
func TestSignAndParse(t *testing.T) {
	j, err := New(testSecret)
	require.NoError(t, err)

	token, err := j.Sign(NewUserClaims("65f1c0ffee", "Admin", time.Hour))
	require.NoError(t, err)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "65f1c0ffee", claims.Subject)
	require.Equal(t, "Admin", claims.Role)
}

// TestParseExpired verifies expired tokens are refused.
func TestParseExpired(t *testing.T) {
	j, err := New(testSecret)
	require.NoError(t, err)

	claims := NewUserClaims("uid", "User", time.Hour)
	claims.IssuedAt = jwtLib.NewNumericDate(time.Now().Add(-2 * time.Hour))
	claims.ExpiresAt = jwtLib.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := j.Sign(claims)
	require.NoError(t, err)

	_, err = j.Parse(token)
	require.Error(t, err)
}

// TestParseWrongSecret verifies tokens signed with another key are refused.
func TestParseWrongSecret(t *testing.T) {
	j1, err := New(testSecret)
	require.NoError(t, err)
	j2, err := New([]byte("another-secret-of-16+"))
	require.NoError(t, err)

	token, err := j1.Sign(NewUserClaims("uid", "User", time.Hour))
	require.NoError(t, err)

	_, err = j2.Parse(token)
	require.Error(t, err)
}

// TestParseRejectsNoneAlg verifies unsigned tokens are refused.
func TestParseRejectsNoneAlg(t *testing.T) {
	j, err := New(testSecret)
	require.NoError(t, err)

	token, err := jwtLib.NewWithClaims(jwtLib.SigningMethodNone, NewUserClaims("uid", "User", time.Hour)).
		SignedString(jwtLib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.Parse(token)
	require.Error(t, err)
}

// TestNewShortSecret verifies short secrets are rejected.
func TestNewShortSecret(t *testing.T) {
	_, err := New([]byte("short"))
	require.Error(t, err)
}
