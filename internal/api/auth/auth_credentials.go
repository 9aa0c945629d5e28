package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps a hash around a few hundred milliseconds on commodity hardware.
const DefaultBcryptCost = 12

var _ CredentialManager = (*BcryptCredentialManager)(nil)

// CredentialManager owns the one-way transform from plaintext password to stored secret.
type CredentialManager interface {
	// Hash returns a salted hash; two calls with the same input never return the same output.
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A malformed hash is a mismatch.
	Verify(password, hash string) bool
}

type BcryptCredentialManager struct {
	cost   int
	logger *slog.Logger
}

// NewBcryptCredentialManager returns a manager using cost, or DefaultBcryptCost when cost is zero.
func NewBcryptCredentialManager(cost int, logger *slog.Logger) (*BcryptCredentialManager, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptCredentialManager{
		cost:   cost,
		logger: logger,
	}, nil
}

func (m *BcryptCredentialManager) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

func (m *BcryptCredentialManager) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		m.logger.Warn("Stored password hash could not be compared", slog.Any("error", err))
	}
	return false
}
