// Command accountctl switches accounts off and back on.
//
//	accountctl -email someone@example.com disable
//	accountctl -email someone@example.com enable
//
// It reads the same environment as the API. With REDIS_ADDR set it also drops
// the shared cache entry; an API running on the in-process cache only sees the
// change once USER_CACHE_TTL has passed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/cache"
	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/db"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/geocoder89/accounts/internal/redisclient"
	"github.com/geocoder89/accounts/internal/repo/postgres"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, cfg.ProjectName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	email, disabled, err := parseArgs(args)

	if err != nil {
		return err
	}

	if cfg.Store == config.StoreMemory {
		return errors.New("the memory store lives inside the API process; set STORE=postgres")
	}

	pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)

	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	var users cache.UserStore = postgres.NewUsersRepo(pool, nil)

	if cfg.RedisAddr != "" && cfg.UserCacheTTL > 0 {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		// same key prefix as the API
		users = cache.NewUsers(users, cache.NewRedis(rdb.Raw(), cfg.ProjectName+":"), cfg.UserCacheTTL, nil, log)
	}

	return execute(ctx, account.NewAdmin(users, log), email, disabled, out)
}

func parseArgs(args []string) (string, bool, error) {
	fs := flag.NewFlagSet("accountctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "email of the account to change")

	if err := fs.Parse(args); err != nil {
		return "", false, err
	}

	if strings.TrimSpace(*email) == "" {
		return "", false, errors.New("-email is required")
	}

	if fs.NArg() != 1 {
		return "", false, errors.New("expected exactly one action: disable or enable")
	}

	switch fs.Arg(0) {
	case "disable":
		return *email, true, nil
	case "enable":
		return *email, false, nil
	default:
		return "", false, fmt.Errorf("unknown action %q: want disable or enable", fs.Arg(0))
	}
}

func execute(ctx context.Context, admin *account.Admin, email string, disabled bool, out io.Writer) error {
	u, err := admin.SetDisabled(ctx, email, disabled)

	if err != nil {
		return err
	}

	state := "enabled"
	if u.Disabled {
		state = "disabled"
	}

	_, err = fmt.Fprintf(out, "%s (id %d) %s\n", u.Email, u.ID, state)
	return err
}
