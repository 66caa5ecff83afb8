package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geocoder89/accounts/internal/domain/user"
)

func TestUsersRepo_CreateAndGet(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	u, err := r.Create(ctx, user.NewUser{Email: "a@x.com", FirstName: "Ada", LastName: "L", HashedPassword: "h"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected first id to be 1, got %d", u.ID)
	}

	byEmail, err := r.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.HashedPassword != "h" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	byID, err := r.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", byID.Email)
	}
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	if _, err := r.Create(ctx, user.NewUser{Email: "a@x.com"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err := r.Create(ctx, user.NewUser{Email: "a@x.com"})
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUsersRepo_EmailIsCaseSensitive(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	if _, err := r.Create(ctx, user.NewUser{Email: "a@x.com"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := r.GetByEmail(ctx, "A@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for different case, got %v", err)
	}
}

func TestUsersRepo_NotFound(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	if _, err := r.GetByEmail(ctx, "nope@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.GetByID(ctx, 42); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.SetDisabled(ctx, 42, true); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRepo_SetDisabled(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	u, _ := r.Create(ctx, user.NewUser{Email: "a@x.com"})

	if err := r.SetDisabled(ctx, u.ID, true); err != nil {
		t.Fatalf("SetDisabled error: %v", err)
	}

	got, _ := r.GetByID(ctx, u.ID)
	if !got.Disabled || got.UpdatedOn == nil {
		t.Fatalf("expected disabled user with updated_on, got %+v", got)
	}
}

func TestUsersRepo_ConcurrentCreateSameEmail(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create(ctx, user.NewUser{Email: "race@x.com"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one create to succeed, got %d", created)
	}
}
