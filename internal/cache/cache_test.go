package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("got (%q, %v, %v) want (\"v\", true, nil)", v, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("entry must expire once ttl has elapsed: ok=%v err=%v", ok, err)
	}
}

func TestCache_ZeroTTLStoresNothing(t *testing.T) {
	c := New()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("zero ttl must not store")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New()
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		if err := c.Set(ctx, k, []byte(k), time.Minute); err != nil {
			t.Fatalf("Set(%q) error: %v", k, err)
		}
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("deleted key still present")
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Fatalf("other key must survive the delete")
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestRedis_SetGetDelete(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	r := NewRedis(rdb, "accounts:")
	ctx := context.Background()

	if _, ok, err := r.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("empty redis: ok=%v err=%v", ok, err)
	}

	if err := r.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if !mr.Exists("accounts:k") {
		t.Fatalf("key must be namespaced")
	}

	v, ok, err := r.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("got (%q, %v, %v) want (\"v\", true, nil)", v, ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, err := r.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("entry must expire: ok=%v err=%v", ok, err)
	}

	if err := r.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if mr.Exists("accounts:k") {
		t.Fatalf("key should be gone after Delete")
	}
}

func TestRedis_GetErrorWhenServerDown(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	r := NewRedis(rdb, "")
	mr.Close()

	_, ok, err := r.Get(context.Background(), "k")
	if err == nil || ok {
		t.Fatalf("expected an error with the server down: ok=%v err=%v", ok, err)
	}
}
