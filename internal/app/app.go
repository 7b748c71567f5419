// Package app wires the process: configuration, logging, stores, the hash
// pool, services and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/api"
	"github.com/andamios/andamios-api/internal/api/handler"
	"github.com/andamios/andamios-api/internal/core/ports"
	"github.com/andamios/andamios-api/internal/core/security"
	"github.com/andamios/andamios-api/internal/core/service"
	"github.com/andamios/andamios-api/internal/infrastructure/db/memory"
	mongostore "github.com/andamios/andamios-api/internal/infrastructure/db/mongo"
	"github.com/andamios/andamios-api/internal/infrastructure/db/postgres"
	redisstore "github.com/andamios/andamios-api/internal/infrastructure/db/redis"
	"github.com/andamios/andamios-api/internal/infrastructure/queue"
	"github.com/andamios/andamios-api/internal/pkg/config"
	"github.com/andamios/andamios-api/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// App owns the router and every resource opened for it.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	cancel  context.CancelFunc
	closers []func(context.Context) error
}

// Option customises New.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// WithRegistry serves HTTP metrics from reg instead of the prometheus globals.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// Run loads the configuration from the environment and serves until ctx is
// cancelled or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Pretty:      !cfg.IsProduction(),
		Service:     "andamios-api",
		Environment: cfg.Environment,
	})

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Serve(ctx)
}

// New validates cfg and builds the application. Nothing is connected and no
// socket is opened when the configuration is invalid.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	health := map[string]handler.Pinger{}

	users, items, err := a.openStore(ctx, health)
	if err != nil {
		return nil, err
	}

	bcryptHasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	poolCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	pool := queue.NewHashPool(cfg.Auth.HashWorkers, bcryptHasher, log)
	pool.Start(poolCtx)

	tokens, err := security.NewJWTManager(security.TokenConfig{
		Secret:    []byte(cfg.Auth.JWTSecret),
		Algorithm: cfg.Auth.JWTAlgorithm,
		TTL:       cfg.TokenTTL(),
	})
	if err != nil {
		return nil, err
	}

	var authOpts []service.AuthOption
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errStartup, err)
		}
		a.closers = append(a.closers, closeRedis(client))
		health["redis"] = redisstore.Pinger{Client: client}
		if cfg.Auth.LoginMaxFailures > 0 {
			authOpts = append(authOpts, service.WithLoginThrottle(
				redisstore.NewLoginThrottle(client, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginWindow),
			))
		}
	}

	authSvc, err := service.NewAuthService(users, pool, tokens, log, authOpts...)
	if err != nil {
		return nil, err
	}
	userSvc := service.NewUserService(users, authSvc, log)
	itemSvc := service.NewItemService(items, log)

	a.echo = api.NewRouter(api.Deps{
		Log:            log,
		Auth:           authSvc,
		Users:          userSvc,
		Items:          itemSvc,
		Health:         health,
		CORSOrigins:    cfg.Origins(),
		RequestTimeout: cfg.RequestTimeout,
		Registerer:     o.registerer,
		Gatherer:       o.gatherer,
	})

	log.Info().
		Str("store", cfg.Store.Driver).
		Int("hash_workers", pool.Workers()).
		Bool("login_throttle", len(authOpts) > 0).
		Msg("application initialised")

	ok = true
	return a, nil
}

var errStartup = errors.New("startup failed")

func (a *App) openStore(ctx context.Context, health map[string]handler.Pinger) (ports.UserRepository, ports.ItemRepository, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errStartup, err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errStartup, err)
		}
		health["mongo"] = store
		return mongostore.NewUserRepository(store.Database()), mongostore.NewItemRepository(store.Database()), nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: a.cfg.Postgres.URL})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errStartup, err)
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errStartup, err)
		}
		health["postgres"] = pool
		return postgres.NewUserRepository(pool), postgres.NewItemRepository(pool), nil

	default:
		return memory.NewUserRepository(), memory.NewItemRepository(), nil
	}
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Serve listens on the configured address until ctx ends, then shuts the
// server down gracefully and releases every resource.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr()).Msg("server starting")
		if err := a.echo.Start(a.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		a.log.Error().Err(serveErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown failed")
		serveErr = errors.Join(serveErr, err)
	}
	a.close(shutdownCtx)

	a.log.Info().Msg("server stopped")
	return serveErr
}

// Close releases resources without serving. Used when New succeeded but the
// server is never started.
func (a *App) Close(ctx context.Context) {
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("resource close failed")
		}
	}
	a.closers = nil
}

func closeRedis(client *redis.Client) func(context.Context) error {
	return func(context.Context) error { return client.Close() }
}
