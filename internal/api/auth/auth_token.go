package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-auth-service/config"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

// DefaultTokenTTL is the absolute lifetime of an issued token.
const DefaultTokenTTL = 7 * 24 * time.Hour

var _ TokenManager = (*JWTTokenManager)(nil)

// TokenManager issues and verifies signed identity assertions.
// Tokens cannot be revoked; claims reflect the user at issue time.
type TokenManager interface {
	Issue(identity types.Identity) (string, error)
	Verify(token string) (*types.Claims, error)
	// Configured returns types.ErrConfiguration when no signing secret is set.
	Configured() error
}

type JWTTokenManager struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

// NewJWTTokenManager builds an HS256 manager. An empty secret is accepted here
// and reported on every Issue/Verify call.
func NewJWTTokenManager(cfg config.JWTConfig) *JWTTokenManager {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTTokenManager{
		secret:   []byte(cfg.SecretKey),
		ttl:      ttl,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
}

func (m *JWTTokenManager) Configured() error {
	if len(m.secret) == 0 {
		return fmt.Errorf("%w: signing secret is not configured", types.ErrConfiguration)
	}
	return nil
}

func (m *JWTTokenManager) Issue(identity types.Identity) (string, error) {
	if err := m.Configured(); err != nil {
		return "", err
	}

	now := m.now()
	claims := &types.Claims{
		UserID: identity.ID,
		Email:  identity.Email,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTTokenManager) Verify(tokenString string) (*types.Claims, error) {
	if err := m.Configured(); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		// Expiry is only evaluated once the signature has verified.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", types.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, types.ErrTokenInvalid
	}

	return claims, nil
}
