package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/auth"
	"github.com/geocoder89/accounts/internal/cache"
	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/db"
	httpx "github.com/geocoder89/accounts/internal/http"
	"github.com/geocoder89/accounts/internal/http/handlers"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/geocoder89/accounts/internal/redisclient"
	"github.com/geocoder89/accounts/internal/repo/memory"
	"github.com/geocoder89/accounts/internal/repo/postgres"
	"github.com/geocoder89/accounts/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.ProjectName)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ProjectName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
		Insecure:    cfg.OTLPInsecure,
	})

	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	prom := observability.NewProm(prometheus.DefaultRegisterer)
	checks := map[string]handlers.Pinger{}

	var store cache.UserStore

	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory user store; data is lost on restart")
		store = memory.NewUsersRepo()

	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)

		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(30 * time.Second)
		err = db.Migrate(mctx, pool)
		cancel()

		if err != nil {
			return err
		}

		checks["db"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		store = postgres.NewUsersRepo(pool, prom)
	}

	if cfg.UserCacheTTL > 0 {
		var backend cache.Backend = cache.New()

		if cfg.RedisAddr != "" {
			rdb := redisclient.New(redisclient.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer func() { _ = rdb.Close() }()

			checks["cache"] = rdb.Ping
			backend = cache.NewRedis(rdb.Raw(), cfg.ProjectName+":")
		}

		store = cache.NewUsers(store, backend, cfg.UserCacheTTL, prom, log)
	}

	hasher, err := security.NewHasher(cfg.HashCost)

	if err != nil {
		return err
	}

	tokens, err := auth.NewManager(auth.Config{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Algorithm:     cfg.Algorithm,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})

	if err != nil {
		return err
	}

	svc := account.NewService(store, hasher, tokens, prom, log)

	sctx, cancel := config.WithTimeout(10 * time.Second)
	created, err := db.EnsureSeedUser(sctx, store, hasher, db.SeedUser{
		Email:     cfg.SeedEmail,
		Password:  cfg.SeedPassword,
		FirstName: cfg.SeedFirstName,
		LastName:  cfg.SeedLastName,
	})
	cancel()

	if err != nil {
		return err
	}
	if created {
		log.Info("seed user created", "email", cfg.SeedEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.RouterConfig{
		Env:            cfg.Env,
		ServiceName:    cfg.ProjectName,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}, httpx.Deps{
		Accounts: svc,
		Prom:     prom,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}
