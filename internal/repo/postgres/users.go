package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, first_name, last_name, hashed_password, disabled, created_on, updated_on`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name, hashed_password)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			in.Email, in.FirstName, in.LastName, in.HashedPassword,
		), &u)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE email = $1`,
			email,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("users.set_disabled", func() error {
		tag, err = r.pool.Exec(ctx, `
		UPDATE users
		SET disabled = $2,
		    updated_on = NOW()
		WHERE id = $1
	`, id, disabled)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.HashedPassword,
		&u.Disabled,
		&u.CreatedOn,
		&u.UpdatedOn,
	)
}
