package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondmain/internal/models"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, "secondmain-api", time.Hour)
	require.NoError(t, err)
	return s
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()
	s := newTestTokens(t)

	tok, err := s.Issue(42)
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestTokenService_Claims(t *testing.T) {
	t.Parallel()
	s, err := NewTokenService(testSecret, "secondmain-api", 0)
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	tok, err := s.Issue(7)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "secondmain-api", claims.Issuer)
	assert.Equal(t, fixed.Add(DefaultTokenTTL).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_UniqueIDs(t *testing.T) {
	t.Parallel()
	s := newTestTokens(t)
	a, err := s.Issue(1)
	require.NoError(t, err)
	b, err := s.Issue(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()
	s := newTestTokens(t)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	tok, err := s.Issue(1)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(tok)
	assert.True(t, errors.Is(err, models.ErrExpiredToken))
}

func TestTokenService_Rejects(t *testing.T) {
	t.Parallel()
	s := newTestTokens(t)
	valid, err := s.Issue(5)
	require.NoError(t, err)

	other, err := NewTokenService("another-secret-at-least-32-characters", "secondmain-api", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(5)
	require.NoError(t, err)

	otherIssuer, err := NewTokenService(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue(5)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "5",
		Issuer:    "secondmain-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "5",
		Issuer:    "secondmain-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "abc",
		Issuer:    "secondmain-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "5",
		Issuer:  "secondmain-api",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := map[string]string{
		"Malformed":      "not.a.jwt",
		"Empty":          "",
		"Wrong Secret":   foreign,
		"Wrong Issuer":   wrongIssuer,
		"None Algorithm": none,
		"Other HMAC":     hs512,
		"Bad Subject":    badSubject,
		"No Expiry":      noExpiry,
		"Tampered":       tampered,
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			assert.True(t, errors.Is(err, models.ErrInvalidToken), "got %v", err)
		})
	}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewTokenService("", "iss", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("secret123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
	assert.False(t, CheckPassword("not-a-hash", "secret123"))
}
