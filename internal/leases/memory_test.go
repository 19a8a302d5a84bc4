package leases

import (
	"context"
	"testing"
	"time"
)

func TestAcquireReleaseOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Acquire(ctx, "agent-1", "CA1", time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if owner, _ := s.Owner(ctx, "agent-1"); owner != "CA1" {
		t.Fatalf("expected owner CA1, got %q", owner)
	}

	// Another call cannot take a held lease.
	if err := s.Acquire(ctx, "agent-1", "CA2", time.Minute); err != ErrNotAcquired {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	// The holder may re-acquire (retried webhook).
	if err := s.Acquire(ctx, "agent-1", "CA1", time.Minute); err != nil {
		t.Fatalf("re-acquire by owner: %v", err)
	}

	if err := s.Release(ctx, "agent-1", "CA1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if owner, _ := s.Owner(ctx, "agent-1"); owner != "" {
		t.Fatalf("expected no owner after release, got %q", owner)
	}
}

func TestReleaseByNonOwnerIsNoop(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Acquire(ctx, "agent-1", "CA1", time.Minute)
	if err := s.Release(ctx, "agent-1", "CA2"); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if owner, _ := s.Owner(ctx, "agent-1"); owner != "CA1" {
		t.Fatalf("non-owner release must not drop the lease, owner=%q", owner)
	}
}

func TestLeaseExpires(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	s.SetClock(func() time.Time { return now })

	s.Acquire(ctx, "agent-1", "CA1", time.Minute)

	now = now.Add(2 * time.Minute)
	if owner, _ := s.Owner(ctx, "agent-1"); owner != "" {
		t.Fatalf("expected lease to expire, owner=%q", owner)
	}
	// An expired lease is up for grabs.
	if err := s.Acquire(ctx, "agent-1", "CA2", time.Minute); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
}
