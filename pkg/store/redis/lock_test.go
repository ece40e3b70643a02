package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLockStore(t *testing.T) (*LockStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewLockStore(client), mr
}

func TestLockMutualExclusion(t *testing.T) {
	s, _ := newTestLockStore(t)
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "d-1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, err = s.Acquire(ctx, "d-1", "bob", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if ok {
		t.Error("expected second holder to be refused")
	}

	// A different diagram is a different lock.
	ok, err = s.Acquire(ctx, "d-2", "bob", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Error("expected lock on a different diagram to succeed")
	}
}

func TestLockReacquireRenews(t *testing.T) {
	s, _ := newTestLockStore(t)
	ctx := context.Background()

	if ok, err := s.Acquire(ctx, "d-1", "alice", time.Minute); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Acquire(ctx, "d-1", "alice", time.Minute); err != nil || !ok {
		t.Fatalf("expected idempotent re-acquire: ok=%v err=%v", ok, err)
	}
}

func TestLockExpiryFreesDiagram(t *testing.T) {
	s, mr := newTestLockStore(t)
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "d-1", "alice", time.Second); !ok {
		t.Fatal("expected acquire to succeed")
	}

	mr.FastForward(2 * time.Second)

	ok, err := s.Acquire(ctx, "d-1", "bob", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestLockRenewAfterSteal(t *testing.T) {
	s, mr := newTestLockStore(t)
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "d-1", "alice", time.Second); !ok {
		t.Fatal("expected acquire to succeed")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := s.Acquire(ctx, "d-1", "bob", time.Minute); !ok {
		t.Fatal("expected takeover to succeed")
	}

	if err := s.Renew(ctx, "d-1", "alice", time.Minute); err == nil {
		t.Error("expected renew by previous holder to fail")
	}
}

func TestLockReleaseAndGet(t *testing.T) {
	s, _ := newTestLockStore(t)
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "d-1", "alice", time.Minute); !ok {
		t.Fatal("expected acquire to succeed")
	}

	lock, err := s.Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if lock == nil || lock.HolderID != "alice" {
		t.Fatalf("expected alice to hold the lock, got %+v", lock)
	}

	if err := s.Release(ctx, "d-1", "alice"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	lock, err = s.Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if lock != nil {
		t.Errorf("expected lock gone after release, got %+v", lock)
	}

	// Releasing again is a no-op.
	if err := s.Release(ctx, "d-1", "alice"); err != nil {
		t.Errorf("expected idempotent release, got %v", err)
	}
}
