package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/geocoder89/accounts/internal/domain/user"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, u user.NewUser) (user.User, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) error
}

type LookupRecorder interface {
	CacheLookup(result string)
}

// Users is a read-through cache in front of a UserStore, keyed by email.
// Only hits are cached; a missing user always goes to the store. Entries live
// for ttl, which bounds how long a changed disabled flag can go unnoticed.
type Users struct {
	next    UserStore
	backend Backend
	ttl     time.Duration
	metrics LookupRecorder
	log     *slog.Logger
}

// cachedUser keeps the hash, which user.User deliberately leaves out of JSON.
type cachedUser struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	HashedPassword string     `json:"hashed_password"`
	Disabled       bool       `json:"disabled"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      *time.Time `json:"updated_on,omitempty"`
}

func NewUsers(next UserStore, backend Backend, ttl time.Duration, metrics LookupRecorder, log *slog.Logger) *Users {
	if log == nil {
		log = slog.Default()
	}

	return &Users{
		next:    next,
		backend: backend,
		ttl:     ttl,
		metrics: metrics,
		log:     log,
	}
}

func emailKey(email string) string {
	return "user:email:" + email
}

func (c *Users) GetByEmail(ctx context.Context, email string) (user.User, error) {
	key := emailKey(email)

	b, ok, err := c.backend.Get(ctx, key)

	switch {
	case err != nil:
		c.record("error")
		c.log.WarnContext(ctx, "user cache get failed", "err", err)
	case ok:
		var cu cachedUser
		if err := json.Unmarshal(b, &cu); err == nil {
			c.record("hit")
			return cu.toUser(), nil
		}
		// unreadable entry: drop it and fall through to the store
		_ = c.backend.Delete(ctx, key)
		c.record("error")
	default:
		c.record("miss")
	}

	u, err := c.next.GetByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	if b, err := json.Marshal(fromUser(u)); err == nil {
		if err := c.backend.Set(ctx, key, b, c.ttl); err != nil {
			c.log.WarnContext(ctx, "user cache set failed", "err", err)
		}
	}

	return u, nil
}

func (c *Users) GetByID(ctx context.Context, id int64) (user.User, error) {
	return c.next.GetByID(ctx, id)
}

func (c *Users) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	return c.next.Create(ctx, in)
}

// SetDisabled writes the flag through to the store, then drops the cached
// entry so the next lookup reads it back.
func (c *Users) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	u, err := c.next.GetByID(ctx, id)

	if err != nil {
		return err
	}

	if err := c.next.SetDisabled(ctx, id, disabled); err != nil {
		return err
	}

	return c.Invalidate(ctx, u.Email)
}

// Invalidate drops the cached entry for email.
func (c *Users) Invalidate(ctx context.Context, email string) error {
	return c.backend.Delete(ctx, emailKey(email))
}

func (c *Users) record(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookup(result)
	}
}

func fromUser(u user.User) cachedUser {
	return cachedUser{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		HashedPassword: u.HashedPassword,
		Disabled:       u.Disabled,
		CreatedOn:      u.CreatedOn,
		UpdatedOn:      u.UpdatedOn,
	}
}

func (cu cachedUser) toUser() user.User {
	return user.User{
		ID:             cu.ID,
		Email:          cu.Email,
		FirstName:      cu.FirstName,
		LastName:       cu.LastName,
		HashedPassword: cu.HashedPassword,
		Disabled:       cu.Disabled,
		CreatedOn:      cu.CreatedOn,
		UpdatedOn:      cu.UpdatedOn,
	}
}
