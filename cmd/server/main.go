package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mealminder/internal/config"
	"mealminder/internal/db"
	"mealminder/internal/db/mock"
	applog "mealminder/internal/log"
	"mealminder/internal/oauth"
	"mealminder/internal/scraper"
	"mealminder/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc       = config.Load
	setLogLevelFunc      = applog.SetLevel
	newMockDatabaseFunc  = mock.New
	configureDatabase    = db.Configure
	newRedisClientFunc   = oauth.NewRedisClient
	newServerFunc        = func(cfg server.Config) (serverLifecycle, error) { return server.New(cfg) }
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	defer applog.Sync()

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	store, closeStore, err := oauthStore(ctx, cfg.Redis, database)
	if err != nil {
		applog.Error(ctx, "failed to configure oauth state store", "error", err)
		return 1
	}
	defer closeStore()

	srv, err := newServerFunc(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database:  database,
		OAuth:     oauth.NewService(store, cfg.OAuth.StateTTL, cfg.OAuth.TokenTTL),
		Extractor: scraper.NewPublicFetcher(cfg.Extract.Timeout),
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	return 0
}

// openDatabase falls back to the seeded in-memory database when no URL is set.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock || cfg.URL == "" {
		if !cfg.UseMock {
			applog.Warn(ctx, "DATABASE_URL not set, using in-memory mock database")
		}
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

func oauthStore(ctx context.Context, cfg config.RedisConfig, database *gorm.DB) (oauth.StateStore, func(), error) {
	if cfg.URL == "" {
		return oauth.NewGormStore(database), func() {}, nil
	}
	client, err := newRedisClientFunc(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	applog.Info(ctx, "using redis for oauth state", "addr", client.Options().Addr)
	return oauth.NewRedisStore(client), func() { closeRedis(ctx, client) }, nil
}

func closeRedis(ctx context.Context, client *redis.Client) {
	if err := client.Close(); err != nil {
		applog.Warn(ctx, "failed to close redis client", "error", err)
	}
}
