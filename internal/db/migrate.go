package db

import (
	"context"
	"fmt"

	"github.com/geocoder89/accounts/internal/db/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded migrations through a database/sql handle
// borrowed from the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// not closed here: the pool owns the connections
	conn := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
