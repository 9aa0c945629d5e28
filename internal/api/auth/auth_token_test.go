package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-auth-service/config"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

var testIdentity = types.Identity{
	ID:    "8c0e2b1a-3f4d-4e5f-9a6b-7c8d9e0f1a2b",
	Email: "alice@example.com",
	Name:  "Alice",
}

func newTestTokens(secret string, now time.Time) *JWTTokenManager {
	m := NewJWTTokenManager(config.JWTConfig{SecretKey: secret})
	m.now = func() time.Time { return now }
	return m
}

// flipSignatureByte alters the first decoded byte of the signature segment.
func flipSignatureByte(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0xFF
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)
	return strings.Join(parts, ".")
}

func TestIssueAndVerify(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestTokens("test-secret", issuedAt)

	token, err := m.Issue(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.ID, claims.UserID)
	assert.Equal(t, testIdentity.Email, claims.Email)
	assert.Equal(t, testIdentity.Name, claims.Name)
	assert.Equal(t, testIdentity.ID, claims.Subject)
	assert.True(t, claims.IssuedAt.Time.Equal(issuedAt))
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(DefaultTokenTTL)))
}

func TestVerifyExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestTokens("test-secret", issuedAt)

	token, err := m.Issue(testIdentity)
	require.NoError(t, err)

	t.Run("JustBeforeExpiry", func(t *testing.T) {
		m.now = func() time.Time { return issuedAt.Add(DefaultTokenTTL - time.Minute) }
		_, err := m.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("AfterExpiry", func(t *testing.T) {
		m.now = func() time.Time { return issuedAt.Add(DefaultTokenTTL + time.Minute) }
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, types.ErrTokenExpired)
		assert.NotErrorIs(t, err, types.ErrTokenInvalid)
	})

	t.Run("ExpiredAndTampered", func(t *testing.T) {
		m.now = func() time.Time { return issuedAt.Add(DefaultTokenTTL + time.Minute) }
		_, err := m.Verify(flipSignatureByte(t, token))
		assert.ErrorIs(t, err, types.ErrTokenInvalid)
	})
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	m := newTestTokens("test-secret", now)

	valid, err := m.Issue(testIdentity)
	require.NoError(t, err)

	otherSecret, err := newTestTokens("another-secret", now).Issue(testIdentity)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &types.Claims{
		UserID: testIdentity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.Claims{
		UserID: testIdentity.ID,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &types.Claims{
		UserID: testIdentity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.Claims{
		Email: testIdentity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "TamperedSignature", token: flipSignatureByte(t, valid)},
		{name: "WrongSecret", token: otherSecret},
		{name: "AlgNone", token: unsigned},
		{name: "UnexpectedAlgorithm", token: hs512},
		{name: "MissingExpiry", token: noExpiry},
		{name: "MissingUserID", token: noSubject},
		{name: "Garbage", token: "not-a-token"},
		{name: "Empty", token: ""},
		{name: "TwoSegments", token: "eyJhbGciOiJIUzI1NiJ9.eyJpZCI6IngifQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, types.ErrTokenInvalid)
		})
	}
}

func TestIssuerAndAudience(t *testing.T) {
	now := time.Now()
	issuer := NewJWTTokenManager(config.JWTConfig{SecretKey: "s", Issuer: "auth-service", Audience: "api"})
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue(testIdentity)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "auth-service", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"api"}, claims.Audience)

	otherIssuer := NewJWTTokenManager(config.JWTConfig{SecretKey: "s", Issuer: "someone-else"})
	_, err = otherIssuer.Verify(token)
	assert.ErrorIs(t, err, types.ErrTokenInvalid)

	otherAudience := NewJWTTokenManager(config.JWTConfig{SecretKey: "s", Audience: "billing"})
	_, err = otherAudience.Verify(token)
	assert.ErrorIs(t, err, types.ErrTokenInvalid)
}

func TestMissingSecret(t *testing.T) {
	m := NewJWTTokenManager(config.JWTConfig{})

	assert.ErrorIs(t, m.Configured(), types.ErrConfiguration)

	_, err := m.Issue(testIdentity)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	signed, err := newTestTokens("test-secret", time.Now()).Issue(testIdentity)
	require.NoError(t, err)
	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestCustomTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewJWTTokenManager(config.JWTConfig{SecretKey: "s", TokenTTL: time.Hour})
	m.now = func() time.Time { return now }

	token, err := m.Issue(testIdentity)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(time.Hour)))
}
