package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/accounts/internal/domain/user"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) error
}

// Admin holds the operator actions that have no HTTP route. Give it the same
// cached store the API reads from, so a change reaches /me without waiting
// for the cache ttl.
type Admin struct {
	users AdminStore
	log   *slog.Logger
}

func NewAdmin(users AdminStore, log *slog.Logger) *Admin {
	if log == nil {
		log = slog.Default()
	}

	return &Admin{users: users, log: log}
}

// SetDisabled switches the account for email off (or back on) and returns it
// with the new flag.
func (a *Admin) SetDisabled(ctx context.Context, email string, disabled bool) (user.User, error) {
	ctx, span := tracer.Start(ctx, "account.SetDisabled")
	defer span.End()

	u, err := a.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := a.users.SetDisabled(ctx, u.ID, disabled); err != nil {
		return user.User{}, fmt.Errorf("set disabled: %w", err)
	}

	u.Disabled = disabled
	a.log.InfoContext(ctx, "account flag changed", "user_id", u.ID, "disabled", disabled)

	return u, nil
}
