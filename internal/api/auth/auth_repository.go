package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-auth-service/app/observability/metrics"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

const uniqueViolation = "23505"

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo is the user store. Implementations enforce email uniqueness and
// report a violation as types.ErrUserAlreadyExists.
type AuthRepo interface {
	// GetUserByEmail returns types.ErrNotFound when no user has the (already normalized) email.
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	// GetUserByID returns types.ErrNotFound when the id is unknown or malformed.
	GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error)
	CreateUser(ctx context.Context, email, hashedPassword, name string) (*types.UserAuth, error)
}

// DBTX is the subset of *pgxpool.Pool used by the repository.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresAuthRepo struct {
	logger  *slog.Logger
	pgpool  DBTX
	metrics *metrics.AppMetrics
}

func NewPostgresAuthRepo(pgpool DBTX, logger *slog.Logger, m *metrics.AppMetrics) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger:  logger,
		pgpool:  pgpool,
		metrics: m,
	}
}

const userColumns = `id::text, email, name, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*types.UserAuth, error) {
	var user types.UserAuth
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *PostgresAuthRepo) startSpan(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	return otel.Tracer("AuthRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	))
}

func (r *PostgresAuthRepo) observe(ctx context.Context, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	ctx, span := r.startSpan(ctx, "GetUserByEmail", "SELECT")
	defer span.End()

	start := time.Now()
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
	r.observe(ctx, "SELECT", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("get user by email: query failed: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	ctx, span := r.startSpan(ctx, "GetUserByID", "SELECT")
	defer span.End()

	id, err := uuid.Parse(userID)
	if err != nil {
		span.SetStatus(codes.Ok, "Malformed user id")
		return nil, types.ErrNotFound
	}
	span.SetAttributes(attribute.String("db.user.id", id.String()))

	start := time.Now()
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	r.observe(ctx, "SELECT", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by id", slog.String("userID", userID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("get user by id: query failed: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return user, nil
}

// CreateUser implements auth.AuthRepo.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, hashedPassword, name string) (*types.UserAuth, error) {
	ctx, span := r.startSpan(ctx, "CreateUser", "INSERT")
	defer span.End()

	start := time.Now()
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING `+userColumns,
		email, name, hashedPassword))
	r.observe(ctx, "INSERT", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.WarnContext(ctx, "Attempted to create user with duplicate email")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("create user: %w", types.ErrUserAlreadyExists)
		}
		r.logger.ErrorContext(ctx, "Failed to insert new user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("create user: db insert failed: %w", err)
	}

	span.SetAttributes(attribute.String("db.user.id", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return user, nil
}
