package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounts/internal/domain/user"
)

// UsersRepo keeps users in process memory. It backs STORE=memory and the tests.
type UsersRepo struct {
	mu      sync.RWMutex
	nextID  int64
	items   map[int64]user.User
	byEmail map[string]int64
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[int64]user.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UsersRepo) Create(_ context.Context, in user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[in.Email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	r.nextID++

	u := user.User{
		ID:             r.nextID,
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		HashedPassword: in.HashedPassword,
		CreatedOn:      time.Now().UTC(),
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

// emails match exactly, as stored
func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// SetDisabled flips the disabled flag. There is no HTTP route for it; see
// account.Admin.
func (r *UsersRepo) SetDisabled(_ context.Context, id int64, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	now := time.Now().UTC()
	u.Disabled = disabled
	u.UpdatedOn = &now
	r.items[id] = u

	return nil
}
