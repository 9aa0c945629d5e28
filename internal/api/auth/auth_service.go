package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-auth-service/app/observability/metrics"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService is the authentication core. Every failure it returns matches one
// of the sentinel errors in the types package.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*types.AuthResult, error)
	Login(ctx context.Context, email, password string) (*types.AuthResult, error)
	// GetCurrentUser returns nil, nil when the user does not exist.
	GetCurrentUser(ctx context.Context, userID string) (*types.UserView, error)
	Authenticate(ctx context.Context, token string) (*types.Claims, error)
}

type AuthServiceImpl struct {
	logger  *slog.Logger
	repo    AuthRepo
	creds   CredentialManager
	tokens  TokenManager
	metrics *metrics.AppMetrics

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthService(repo AuthRepo, creds CredentialManager, tokens TokenManager, logger *slog.Logger, m *metrics.AppMetrics) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:  logger,
		repo:    repo,
		creds:   creds,
		tokens:  tokens,
		metrics: m,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(email)
}

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrInternal, op, err)
}

func outcome(err error) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("outcome", string(types.KindOf(err))))
}

func endSpan(span trace.Span, err error, okMessage string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.KindOf(err)))
		return
	}
	span.SetStatus(codes.Ok, okMessage)
}

// Register creates a user and returns it with a freshly issued token.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, name string) (result *types.AuthResult, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	l := s.logger.With(slog.String("method", "Register"))
	start := time.Now()
	defer func() {
		s.metrics.RegisterRequestsTotal.Add(ctx, 1, outcome(err))
		s.metrics.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds(), outcome(err))
		endSpan(span, err, "User registered")
		span.End()
	}()

	if err := (RegisterRequest{Email: email, Password: password, Name: name}).Validate(); err != nil {
		l.DebugContext(ctx, "Rejected register request", slog.Any("error", err))
		return nil, err
	}

	// Checked before any write so a missing secret never leaves an account without a token.
	if err := s.tokens.Configured(); err != nil {
		l.ErrorContext(ctx, "Token signing is not configured", slog.Any("error", err))
		return nil, err
	}

	email = normalizeEmail(email)

	_, err = s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.InfoContext(ctx, "Registration rejected, email already registered")
		return nil, types.ErrUserAlreadyExists
	case !errors.Is(err, types.ErrNotFound):
		l.ErrorContext(ctx, "Failed to look up user by email", slog.Any("error", err))
		return nil, internalError("find user by email", err)
	}

	hash, err := s.creds.Hash(password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return nil, internalError("hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, email, hash, strings.TrimSpace(name))
	if err != nil {
		// The store is the authority on uniqueness; a concurrent register lands here.
		if errors.Is(err, types.ErrUserAlreadyExists) {
			l.InfoContext(ctx, "Registration lost a race on email uniqueness")
			return nil, types.ErrUserAlreadyExists
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return nil, internalError("create user", err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		l.ErrorContext(ctx, "User created but token issuance failed", slog.String("userID", user.ID), slog.Any("error", err))
		if errors.Is(err, types.ErrConfiguration) {
			return nil, err
		}
		return nil, internalError("issue token", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID))
	return &types.AuthResult{User: user.View(), Token: token}, nil
}

// Login verifies credentials and returns the user with a freshly issued token.
// Unknown email and wrong password both yield types.ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (result *types.AuthResult, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	l := s.logger.With(slog.String("method", "Login"))
	start := time.Now()
	defer func() {
		s.metrics.LoginRequestsTotal.Add(ctx, 1, outcome(err))
		s.metrics.LoginDurationSeconds.Record(ctx, time.Since(start).Seconds(), outcome(err))
		endSpan(span, err, "User logged in")
		span.End()
	}()

	if err := (LoginRequest{Email: email, Password: password}).Validate(); err != nil {
		l.DebugContext(ctx, "Rejected login request", slog.Any("error", err))
		return nil, err
	}

	if err := s.tokens.Configured(); err != nil {
		l.ErrorContext(ctx, "Token signing is not configured", slog.Any("error", err))
		return nil, err
	}

	user, err := s.verifyCredentials(ctx, types.Credentials{Email: normalizeEmail(email), Password: password})
	if err != nil {
		if errors.Is(err, types.ErrInvalidCredentials) {
			l.InfoContext(ctx, "Login failed, invalid credentials")
		} else {
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		l.ErrorContext(ctx, "Token issuance failed", slog.String("userID", user.ID), slog.Any("error", err))
		if errors.Is(err, types.ErrConfiguration) {
			return nil, err
		}
		return nil, internalError("issue token", err)
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	return &types.AuthResult{User: user.View(), Token: token}, nil
}

func (s *AuthServiceImpl) verifyCredentials(ctx context.Context, creds types.Credentials) (*types.UserAuth, error) {
	user, err := s.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			s.creds.Verify(creds.Password, s.decoy())
			return nil, types.ErrInvalidCredentials
		}
		return nil, internalError("find user by email", err)
	}

	if !s.creds.Verify(creds.Password, user.Password) {
		return nil, types.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthServiceImpl) decoy() string {
	s.decoyOnce.Do(func() {
		h, err := s.creds.Hash("decoy-password-never-matches")
		if err != nil {
			s.logger.Warn("Failed to compute decoy hash", slog.Any("error", err))
			return
		}
		s.decoyHash = h
	})
	return s.decoyHash
}

// GetCurrentUser looks up a user by id.
func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, userID string) (*types.UserView, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetCurrentUser", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetCurrentUser"), slog.String("userID", userID))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.DebugContext(ctx, "User not found")
			span.SetStatus(codes.Ok, "User not found")
			return nil, nil
		}
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		err = internalError("find user by id", err)
		endSpan(span, err, "")
		return nil, err
	}

	span.SetStatus(codes.Ok, "User fetched")
	return user.View(), nil
}

// Authenticate verifies a bearer token and returns its claims.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*types.Claims, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Authenticate")
	defer span.End()

	claims, err := s.tokens.Verify(token)
	s.metrics.TokenVerificationsTotal.Add(ctx, 1, outcome(err))
	endSpan(span, err, "Token verified")
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))
	return claims, nil
}
