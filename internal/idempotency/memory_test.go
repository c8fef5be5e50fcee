package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryGuard_WindowSemantics(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGuard(5 * time.Minute)
	g.nowFunc = func() time.Time { return now }

	ctx := context.Background()

	dup, err := g.IsDuplicate(ctx, "key-1")
	if err != nil {
		t.Fatalf("IsDuplicate error: %v", err)
	}
	if dup {
		t.Fatalf("fresh key reported as duplicate")
	}

	// Same key inside the window is rejected.
	now = now.Add(1 * time.Minute)
	dup, _ = g.IsDuplicate(ctx, "key-1")
	if !dup {
		t.Fatalf("expected duplicate inside window")
	}

	// A duplicate must not refresh the stored timestamp: 4 more minutes puts
	// us past the original acceptance, so the key is accepted again.
	now = now.Add(4 * time.Minute)
	dup, _ = g.IsDuplicate(ctx, "key-1")
	if dup {
		t.Fatalf("expected acceptance once the original window lapsed")
	}
}

func TestMemoryGuard_AcceptsAgainAfterExpiry(t *testing.T) {
	// Two submissions 10 minutes apart with a 5 minute window: both accepted.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGuard(5 * time.Minute)
	g.nowFunc = func() time.Time { return now }

	ctx := context.Background()

	if dup, _ := g.IsDuplicate(ctx, "key-1"); dup {
		t.Fatalf("first submission rejected")
	}
	now = now.Add(10 * time.Minute)
	if dup, _ := g.IsDuplicate(ctx, "key-1"); dup {
		t.Fatalf("submission after expiry rejected")
	}
	// And the refreshed acceptance starts a new window.
	now = now.Add(1 * time.Minute)
	if dup, _ := g.IsDuplicate(ctx, "key-1"); !dup {
		t.Fatalf("expected duplicate inside the refreshed window")
	}
}

func TestMemoryGuard_EvictsOldestInserted(t *testing.T) {
	g := NewMemoryGuard(time.Hour)
	ctx := context.Background()

	for i := 0; i <= MaxEntries; i++ {
		key := fmt.Sprintf("key-%05d", i)
		if dup, _ := g.IsDuplicate(ctx, key); dup {
			t.Fatalf("distinct key %s reported as duplicate", key)
		}
	}

	if got := g.Len(); got != MaxEntries {
		t.Fatalf("expected map bounded at %d entries, got %d", MaxEntries, got)
	}

	// The earliest-inserted key was evicted, so it is accepted again.
	if dup, _ := g.IsDuplicate(ctx, "key-00000"); dup {
		t.Fatalf("earliest key should have been evicted")
	}
	// A later key is still tracked.
	if dup, _ := g.IsDuplicate(ctx, "key-00002"); !dup {
		t.Fatalf("later key should still be present")
	}
}

func TestDeriveKey(t *testing.T) {
	if got := DeriveKey("client-key", []byte(`{"a":1}`)); got != "client-key" {
		t.Fatalf("client-supplied key not honored, got %s", got)
	}

	a := DeriveKey("", []byte(`{"a":1}`))
	b := DeriveKey("", []byte(`{"a":1}`))
	c := DeriveKey("", []byte(`{"a":2}`))
	if a != b {
		t.Fatalf("hash key not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different bodies produced the same key")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}
