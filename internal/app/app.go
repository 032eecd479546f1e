// Package app wires configuration, stores, services and the HTTP router into
// a runnable process. Both cmd/server and cmd/seed build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/api"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/identity-service/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
	"github.com/99minutos/identity-service/internal/infrastructure/workers"
	"github.com/99minutos/identity-service/internal/pkg/config"
	"github.com/99minutos/identity-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	users  *service.UserService
	auth   *service.AuthService
	echo   *echo.Echo
	stop   context.CancelFunc
	closer []func(context.Context) error
}

// New connects every backing service named by cfg and builds the router.
// On error, anything already opened is closed again.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	return newApp(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gat prometheus.Gatherer) (_ *App, err error) {
	// the pool outlives ctx so in-flight requests can finish during shutdown
	poolCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	a := &App{cfg: cfg, log: log, stop: stop}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	pool := workers.NewPool(cfg.Hashing.Workers, logger.WithComponent(log, "workers"))
	pool.Start(poolCtx)
	log.Debug().Int("workers", pool.Size()).Int("cost", cfg.Hashing.Cost).Msg("hash pool started")

	cipher, err := security.NewKeyCipher(cfg.Encryption.Algorithm, cfg.Encryption.Key, cfg.Encryption.IV)
	if err != nil {
		return nil, err
	}
	hasher := security.NewBcryptHasher(cfg.Hashing.Cost, pool)
	keys := security.NewAPIKeyGenerator(cfg.APIKey.Prefix, cfg.APIKey.Length)

	checks := map[string]handler.Check{}
	repo, err := a.openStore(ctx, checks)
	if err != nil {
		return nil, err
	}

	var longWindow middleware.WindowAllower
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, func(context.Context) error { return client.Close() })
		checks["redis"] = redis.Ping(client)
		longWindow = redis.NewWindowLimiter(client, cfg.RateLimit.LongLimit, cfg.RateLimit.LongTTL, "ratelimit")
	}

	bounds := domain.PageBounds{
		MinPerPage:     cfg.Pagination.MinPerPage,
		DefaultPerPage: cfg.Pagination.DefaultPerPage,
		MaxPerPage:     cfg.Pagination.MaxPerPage,
	}
	a.users = service.NewUserService(repo, hasher, cipher, keys, bounds, logger.WithComponent(log, "users"))
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	a.auth, err = service.NewAuthService(ctx, a.users, tokens, hasher, logger.WithComponent(log, "auth"))
	if err != nil {
		return nil, err
	}

	a.echo = api.NewRouter(api.Dependencies{
		Config:     cfg,
		Logger:     log,
		Auth:       a.auth,
		Users:      a.users,
		Tokens:     tokens,
		LongWindow: longWindow,
		Checks:     checks,
		Registerer: reg,
		Gatherer:   gat,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, checks map[string]handler.Check) (ports.UserRepository, error) {
	if a.cfg.StoreDriver == config.StoreMemory {
		a.log.Warn().Msg("using the in-memory store, data is lost on restart")
		return memory.NewUserRepository(), nil
	}

	store, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	a.closer = append(a.closer, store.Close)
	checks["mongo"] = store.Ping

	repo := store.Users()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return repo, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP until ctx is done, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("store", a.cfg.StoreDriver).Msg("server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// SeedAdmin creates the default administrator from ADMIN_DEFAULT_*. An
// account that already holds the email or username counts as seeded.
func (a *App) SeedAdmin(ctx context.Context) error {
	admin := a.cfg.Admin
	if admin.Email == "" || admin.Password == "" {
		return errors.New("seed: ADMIN_DEFAULT_EMAIL and ADMIN_DEFAULT_PASSWORD are required")
	}

	user, err := a.users.Create(ctx, domain.NewUser{
		Email:    admin.Email,
		Username: admin.Username,
		Name:     admin.Name,
		Password: admin.Password,
		Role:     domain.RoleAdmin,
		APIKey:   admin.APIKey,
	})
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		a.log.Info().Str("field", conflict.Field).Msg("admin already seeded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	a.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin seeded")
	return nil
}

// Close stops the worker pool and releases every connection, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closer) - 1; i >= 0; i-- {
		errs = append(errs, a.closer[i](ctx))
	}
	a.closer = nil
	a.stop()
	return errors.Join(errs...)
}
