package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

// FileStore keeps one JSON document per fingerprint inside a directory.
// Insert is first-writer-wins: the entry is written to a temp file and
// linked to its final name, so a racing writer for the same fingerprint
// fails the link and its result is discarded.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ ports.CacheStore = (*FileStore)(nil)

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Lookup reads the entry for a fingerprint. Unreadable or corrupt files are
// reported as a miss so the item gets re-analyzed; entries past their own
// retention window also read as a miss but stay on disk for the sweep.
func (s *FileStore) Lookup(_ context.Context, fingerprint string) (domain.CacheEntry, bool, error) {
	raw, err := os.ReadFile(s.entryPath(fingerprint))
	if errors.Is(err, os.ErrNotExist) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		s.warn("unreadable cache entry", "fingerprint", fingerprint, "error", err)
		return domain.CacheEntry{}, false, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Fingerprint != fingerprint {
		s.warn("corrupt cache entry treated as miss", "fingerprint", fingerprint, "error", err)
		return domain.CacheEntry{}, false, nil
	}

	if entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false, nil
	}

	return entry, true, nil
}

// Insert writes the entry unless the fingerprint already exists.
func (s *FileStore) Insert(_ context.Context, entry domain.CacheEntry) (bool, error) {
	if entry.Fingerprint == "" {
		return false, fmt.Errorf("entry has no fingerprint")
	}

	final := s.entryPath(entry.Fingerprint)
	if _, err := os.Stat(final); err == nil {
		return false, nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return false, fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp entry: %w", err)
	}

	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("store entry %s: %w", entry.Fingerprint, err)
	}

	return true, nil
}

// EvictOlderThan removes entries whose analyzed_at predates the cutoff.
func (s *FileStore) EvictOlderThan(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		full := filepath.Join(s.dir, file.Name())
		raw, err := os.ReadFile(full)
		if err != nil {
			continue
		}

		var entry domain.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Corrupt files are reclaimed by the sweep as well.
			if os.Remove(full) == nil {
				removed++
			}
			continue
		}

		if entry.AnalyzedAt.Before(cutoff) {
			if os.Remove(full) == nil {
				removed++
			}
		}
	}

	return removed, nil
}

func (s *FileStore) entryPath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
