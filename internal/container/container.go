package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-auth-service/app/db"
	"github.com/FACorreiaa/go-auth-service/app/observability/metrics"
	"github.com/FACorreiaa/go-auth-service/config"
	"github.com/FACorreiaa/go-auth-service/internal/api/auth"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool
	AuthService  auth.AuthService
	AuthHandler  *auth.AuthHandler
	Authenticate func(next http.Handler) http.Handler
}

// NewContainer initializes and returns a new dependency container.
// The postgres store is migrated and pinged before it is used.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.AppMetrics) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	repo, err := c.newAuthRepo(ctx, m)
	if err != nil {
		c.Close()
		return nil, err
	}

	creds, err := auth.NewBcryptCredentialManager(cfg.Password.BcryptCost, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	tokens := auth.NewJWTTokenManager(cfg.JWT)
	if err := tokens.Configured(); err != nil {
		// Not fatal: register, login and authenticate report it per request.
		logger.Warn("JWT secret is not set; auth endpoints will return configuration errors")
	}

	c.AuthService = auth.NewAuthService(repo, creds, tokens, logger, m)
	c.AuthHandler = auth.NewAuthHandler(c.AuthService, logger)
	c.Authenticate = auth.Authenticate(logger, c.AuthService)
	return c, nil
}

func (c *Container) newAuthRepo(ctx context.Context, m *metrics.AppMetrics) (auth.AuthRepo, error) {
	switch c.Config.Repositories.Store {
	case StoreMemory, "":
		c.Logger.Info("Using in-memory user store")
		return auth.NewMemoryAuthRepo(c.Logger), nil
	case StorePostgres:
	default:
		return nil, fmt.Errorf("unknown user store %q", c.Config.Repositories.Store)
	}

	dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, c.Logger); err != nil {
		c.Logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	c.Pool, err = database.Init(ctx, dbConfig.ConnectionURL, c.Logger)
	if err != nil {
		return nil, err
	}

	if !database.WaitForDB(ctx, c.Pool, c.Logger) {
		return nil, errors.New("database not ready after waiting")
	}

	return auth.NewPostgresAuthRepo(c.Pool, c.Logger, m), nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
