package storage

import (
	"context"
	"sync"
	"time"

	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

// MemoryStore is a map-backed CacheStore used in tests and as the sink for
// runs that disable the persistent cache.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

var _ ports.CacheStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]domain.CacheEntry{}}
}

// Lookup returns a stored entry unless it outlived its retention.
func (s *MemoryStore) Lookup(_ context.Context, fingerprint string) (domain.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fingerprint]
	if !ok || entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Insert stores the entry if the fingerprint is absent.
func (s *MemoryStore) Insert(_ context.Context, entry domain.CacheEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.Fingerprint]; exists {
		return false, nil
	}
	s.entries[entry.Fingerprint] = entry
	return true, nil
}

// EvictOlderThan drops entries analyzed before the cutoff.
func (s *MemoryStore) EvictOlderThan(_ context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for fingerprint, entry := range s.entries {
		if entry.AnalyzedAt.Before(cutoff) {
			delete(s.entries, fingerprint)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
