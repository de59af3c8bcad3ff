package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreInsertIfAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if inserted, err := store.Insert(ctx, testEntry("fp-1")); err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	if inserted, err := store.Insert(ctx, testEntry("fp-1")); err != nil || inserted {
		t.Fatalf("duplicate insert must lose: inserted=%v err=%v", inserted, err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.Len())
	}
}

func TestMemoryStoreEvictOlderThan(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	old := testEntry("fp-old")
	old.AnalyzedAt = time.Now().UTC().Add(-48 * time.Hour)
	store.Insert(ctx, old)
	store.Insert(ctx, testEntry("fp-new"))

	removed, err := store.EvictOlderThan(ctx, 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("evict: removed=%d err=%v", removed, err)
	}
	if _, ok, _ := store.Lookup(ctx, "fp-new"); !ok {
		t.Fatalf("fresh entry must survive")
	}
}

func TestMemoryStoreExpiredEntryReadsAsMiss(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	entry := testEntry("fp-exp")
	entry.AnalyzedAt = time.Now().UTC().Add(-10 * 24 * time.Hour)
	entry.ExpiresAfterDays = 5
	store.Insert(ctx, entry)

	if _, ok, err := store.Lookup(ctx, "fp-exp"); err != nil || ok {
		t.Fatalf("expired entry must read as a miss: ok=%v err=%v", ok, err)
	}
}
