package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-auth-service/internal/types"
)

var _ AuthRepo = (*MemoryAuthRepo)(nil)

// MemoryAuthRepo keeps users in process memory. Records never expire.
// Email uniqueness relies on cache.Add, which is atomic per key.
type MemoryAuthRepo struct {
	logger *slog.Logger
	users  *cache.Cache
	now    func() time.Time
}

func NewMemoryAuthRepo(logger *slog.Logger) *MemoryAuthRepo {
	return &MemoryAuthRepo{
		logger: logger,
		users:  cache.New(cache.NoExpiration, 0),
		now:    time.Now,
	}
}

func emailKey(email string) string { return "email:" + email }
func idKey(id string) string       { return "id:" + id }

// GetUserByEmail implements auth.AuthRepo.
func (r *MemoryAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	v, ok := r.users.Get(emailKey(email))
	if !ok {
		return nil, types.ErrNotFound
	}
	user := v.(types.UserAuth)
	return &user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *MemoryAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	email, ok := r.users.Get(idKey(userID))
	if !ok {
		return nil, types.ErrNotFound
	}
	return r.GetUserByEmail(ctx, email.(string))
}

// CreateUser implements auth.AuthRepo.
func (r *MemoryAuthRepo) CreateUser(ctx context.Context, email, hashedPassword, name string) (*types.UserAuth, error) {
	now := r.now().UTC()
	user := types.UserAuth{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.users.Add(emailKey(email), user, cache.NoExpiration); err != nil {
		r.logger.WarnContext(ctx, "Attempted to create user with duplicate email")
		return nil, fmt.Errorf("create user: %w", types.ErrUserAlreadyExists)
	}
	r.users.Set(idKey(user.ID), email, cache.NoExpiration)

	return &user, nil
}
