package binding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "gg")
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreSetGet(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "token-1", "key-1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "token-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "key-1" {
		t.Fatalf("expected key-1, got %q", got)
	}
}

func TestRedisStoreGetMiss(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	_, err := store.Get(context.Background(), "never-issued")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatal("miss must not be reported as unavailable")
	}
}

func TestRedisStoreGetDoesNotExtendTTL(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "t", "k", 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(9 * time.Second)
	if _, err := store.Get(ctx, "t"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := store.Get(ctx, "t"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestRedisStoreTouchExtendsBoundary(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	ttl := 5 * time.Minute
	if err := store.Set(ctx, "t", "k", ttl); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(4 * time.Minute)
	if err := store.Touch(ctx, "t", ttl); err != nil {
		t.Fatalf("touch: %v", err)
	}

	mr.FastForward(ttl - time.Second)
	if _, err := store.Get(ctx, "t"); err != nil {
		t.Fatalf("expected live binding at touch+ttl-1s, got %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := store.Get(ctx, "t"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss at touch+ttl+1s, got %v", err)
	}
}

func TestRedisStoreTouchMissing(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	if err := store.Touch(context.Background(), "absent", time.Minute); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "t", "k", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "t"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "t"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(ctx, "t"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestRedisStoreRebindMovesValue(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "csrf-token", "key", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Rebind(ctx, "csrf-token", "refresh-token", "key", time.Hour); err != nil {
		t.Fatalf("rebind: %v", err)
	}

	if _, err := store.Get(ctx, "csrf-token"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected old key gone, got %v", err)
	}
	got, err := store.Get(ctx, "refresh-token")
	if err != nil || got != "key" {
		t.Fatalf("expected rebound value, got %q (%v)", got, err)
	}
	ttl, err := store.TTL(ctx, "refresh-token")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= time.Minute || ttl > time.Hour {
		t.Fatalf("expected new ttl near one hour, got %s", ttl)
	}
}

func TestRedisStoreRejectsNonPositiveTTL(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "t", "k", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("set: expected ErrInvalidTTL, got %v", err)
	}
	if err := store.Touch(ctx, "t", -time.Second); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("touch: expected ErrInvalidTTL, got %v", err)
	}
}

func TestRedisStoreUnavailableIsDistinctFromMiss(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	mr.Close()

	ctx := context.Background()
	checks := map[string]error{
		"set":    store.Set(ctx, "t", "k", time.Minute),
		"touch":  store.Touch(ctx, "t", time.Minute),
		"delete": store.Delete(ctx, "t"),
	}
	_, checks["get"] = store.Get(ctx, "t")

	for op, err := range checks {
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("%s: expected ErrUnavailable, got %v", op, err)
		}
		if errors.Is(err, ErrMiss) {
			t.Fatalf("%s: unavailable must not be reported as miss", op)
		}
	}
}

func TestRedisStoreLastSetWins(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "refresh", "key-a", time.Minute); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := store.Set(ctx, "refresh", "key-b", time.Minute); err != nil {
		t.Fatalf("set b: %v", err)
	}
	got, err := store.Get(ctx, "refresh")
	if err != nil || got != "key-b" {
		t.Fatalf("expected last write to win, got %q (%v)", got, err)
	}
}

func TestRedisStoreNamespaceIsolated(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	users := store.Namespace("u")
	if err := users.Set(ctx, "u1", `{"email":"a@example.com"}`, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("gg:u:u1") {
		t.Fatal("expected namespaced key gg:u:u1")
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("binding space must not see namespaced entries, got %v", err)
	}
}
