package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/cache"
	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/repo/memory"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantEmail    string
		wantDisabled bool
		wantErr      bool
	}{
		{name: "disable", args: []string{"-email", "a@x.com", "disable"}, wantEmail: "a@x.com", wantDisabled: true},
		{name: "enable", args: []string{"-email=a@x.com", "enable"}, wantEmail: "a@x.com"},
		{name: "missing email", args: []string{"disable"}, wantErr: true},
		{name: "missing action", args: []string{"-email", "a@x.com"}, wantErr: true},
		{name: "unknown action", args: []string{"-email", "a@x.com", "delete"}, wantErr: true},
		{name: "two actions", args: []string{"-email", "a@x.com", "disable", "enable"}, wantErr: true},
		{name: "unknown flag", args: []string{"-id", "1", "disable"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, disabled, err := parseArgs(tt.args)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if email != tt.wantEmail || disabled != tt.wantDisabled {
				t.Fatalf("got (%q, %v) want (%q, %v)", email, disabled, tt.wantEmail, tt.wantDisabled)
			}
		})
	}
}

func TestExecute_DisableDropsCachedEntry(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	users := cache.NewUsers(repo, cache.New(), time.Hour, nil, nil)

	created, err := repo.Create(ctx, user.NewUser{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// cached while still enabled
	if _, err := users.GetByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}

	var out bytes.Buffer
	if err := execute(ctx, account.NewAdmin(users, nil), "a@x.com", true, &out); err != nil {
		t.Fatalf("execute error: %v", err)
	}

	if got, want := out.String(), "a@x.com (id 1) disabled\n"; got != want {
		t.Fatalf("output mismatch: got %q want %q", got, want)
	}

	u, err := users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if u.ID != created.ID || !u.Disabled {
		t.Fatalf("cached read should see the disabled flag: %+v", u)
	}
}

func TestExecute_UnknownEmail(t *testing.T) {
	var out bytes.Buffer

	err := execute(context.Background(), account.NewAdmin(memory.NewUsersRepo(), nil), "ghost@x.com", true, &out)
	if !errors.Is(err, account.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed on failure, got %q", out.String())
	}
}

func TestRun_RejectsMemoryStore(t *testing.T) {
	cfg := config.Config{Store: config.StoreMemory}

	err := run(context.Background(), cfg, nil, []string{"-email", "a@x.com", "disable"}, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected an error for the memory store")
	}
}
