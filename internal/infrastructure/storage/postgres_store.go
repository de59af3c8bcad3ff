package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

const cacheTable = "enrichment_cache"

// PostgresStore persists cache entries in Postgres for deployments where
// several runs share one cache. Insert-if-absent maps to
// ON CONFLICT DO NOTHING, which gives the same first-writer-wins guarantee
// as the file store.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.CacheStore = (*PostgresStore)(nil)

// NewPostgresStore wires an open sql.DB handle.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// OpenPostgresStore connects with the given DSN and verifies the connection.
func OpenPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}
	return NewPostgresStore(db, logger), nil
}

// Lookup reads one entry; scan errors are logged and reported as a miss.
func (s *PostgresStore) Lookup(ctx context.Context, fingerprint string) (domain.CacheEntry, bool, error) {
	query, args, err := s.builder.
		Select("fingerprint", "kind", "model_id", "summary_text", "relevance_score", "analyzed_at", "expires_after_days").
		From(cacheTable).
		Where(sq.Eq{"fingerprint": fingerprint}).
		ToSql()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("build lookup query: %w", err)
	}

	var entry domain.CacheEntry
	row := s.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&entry.Fingerprint,
		&entry.Kind,
		&entry.ModelID,
		&entry.SummaryText,
		&entry.RelevanceScore,
		&entry.AnalyzedAt,
		&entry.ExpiresAfterDays,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		s.warn("unreadable cache row treated as miss", "fingerprint", fingerprint, "error", err)
		return domain.CacheEntry{}, false, nil
	}

	if entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false, nil
	}

	return entry, true, nil
}

// Insert stores the entry unless the fingerprint already exists.
func (s *PostgresStore) Insert(ctx context.Context, entry domain.CacheEntry) (bool, error) {
	query, args, err := s.builder.
		Insert(cacheTable).
		Columns("fingerprint", "kind", "model_id", "summary_text", "relevance_score", "analyzed_at", "expires_after_days").
		Values(
			entry.Fingerprint,
			entry.Kind,
			entry.ModelID,
			entry.SummaryText,
			entry.RelevanceScore,
			entry.AnalyzedAt,
			entry.ExpiresAfterDays,
		).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert entry %s: %w", entry.Fingerprint, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// EvictOlderThan deletes rows whose analyzed_at predates the cutoff.
func (s *PostgresStore) EvictOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	query, args, err := s.builder.
		Delete(cacheTable).
		Where(sq.Lt{"analyzed_at": time.Now().Add(-maxAge)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build evict query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("evict entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
