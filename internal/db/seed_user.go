package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounts/internal/domain/user"
)

type SeedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.NewUser) (user.User, error)
}

type SeedHasher interface {
	Hash(plain string) (string, error)
}

// EnsureSeedUser creates the bootstrap account once. It reports whether a
// user was created; an empty email or password disables seeding.
func EnsureSeedUser(ctx context.Context, store SeedStore, hasher SeedHasher, seed SeedUser) (bool, error) {
	if seed.Email == "" || seed.Password == "" {
		return false, nil
	}

	// check if the user exists

	_, err := store.GetByEmail(ctx, seed.Email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, fmt.Errorf("lookup seed user: %w", err)
	}

	hash, err := hasher.Hash(seed.Password)

	if err != nil {
		return false, fmt.Errorf("hash seed password: %w", err)
	}

	_, err = store.Create(ctx, user.NewUser{
		Email:          seed.Email,
		FirstName:      seed.FirstName,
		LastName:       seed.LastName,
		HashedPassword: hash,
	})

	// another replica got there first
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("create seed user: %w", err)
	}

	return true, nil
}
