// Package sqlite implements the local on-device cache using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"trainlog/internal/domain"
	"trainlog/internal/errs"
)

// Cache is the local cache adapter. One row per week key, the record stored
// as a JSON payload next to its cache metadata. Use ":memory:" as the path
// for an ephemeral cache in tests.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database and its schema.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "local cache", "open cache database", err)
	}
	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.Internal, "local cache", "initialize cache schema", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS week_cache (
		week_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		cached_at INTEGER NOT NULL,
		pending INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_week_cache_pending ON week_cache(pending);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

var _ domain.LocalCache = (*Cache)(nil)

// Get retrieves the cache entry for a key, or (nil, nil) when none exists.
// Missing and failed are distinct outcomes.
func (c *Cache) Get(ctx context.Context, key domain.WeekKey) (*domain.CacheEntry, error) {
	var (
		payload  string
		cachedAt int64
		pending  int
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT payload, cached_at, pending FROM week_cache WHERE week_key = ?;",
		key.String(),
	).Scan(&payload, &cachedAt, &pending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "local cache", "get "+key.String(), err)
	}

	var rec domain.WeekRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, errs.Wrap(errs.Serialization, "local cache", "decode payload for "+key.String(), err)
	}
	return &domain.CacheEntry{
		Record:   rec,
		CachedAt: time.UnixMilli(cachedAt),
		Pending:  pending != 0,
	}, nil
}

// Put stores (or replaces) the entry for a key.
func (c *Cache) Put(ctx context.Context, key domain.WeekKey, entry domain.CacheEntry) error {
	payload, err := json.Marshal(entry.Record)
	if err != nil {
		return errs.Wrap(errs.Serialization, "local cache", "encode payload for "+key.String(), err)
	}

	pending := 0
	if entry.Pending {
		pending = 1
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO week_cache (week_key, payload, cached_at, pending) VALUES (?, ?, ?, ?);",
		key.String(), string(payload), entry.CachedAt.UnixMilli(), pending,
	)
	if err != nil {
		return errs.Wrap(classifyWriteErr(err), "local cache", "put "+key.String(), err)
	}
	return nil
}

// Delete removes the entry for a key. Deleting a missing key is a no-op.
func (c *Cache) Delete(ctx context.Context, key domain.WeekKey) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM week_cache WHERE week_key = ?;", key.String())
	if err != nil {
		return errs.Wrap(errs.Internal, "local cache", "delete "+key.String(), err)
	}
	return nil
}

// ListPending returns the keys of entries awaiting remote sync.
func (c *Cache) ListPending(ctx context.Context) ([]domain.WeekKey, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT week_key FROM week_cache WHERE pending = 1 ORDER BY week_key;")
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "local cache", "list pending", err)
	}
	defer rows.Close()

	var keys []domain.WeekKey
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errs.Wrap(errs.Internal, "local cache", "list pending", err)
		}
		key, err := domain.ParseWeekKey(s)
		if err != nil {
			return nil, errs.Wrap(errs.Serialization, "local cache", "bad stored key "+s, err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ClearPending drops the pending flag for a key without touching the entry.
func (c *Cache) ClearPending(ctx context.Context, key domain.WeekKey) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE week_cache SET pending = 0 WHERE week_key = ?;", key.String())
	if err != nil {
		return errs.Wrap(errs.Internal, "local cache", "clear pending for "+key.String(), err)
	}
	return nil
}

// classifyWriteErr maps SQLite capacity errors to the quota kind so the
// orchestrator can report them accurately.
func classifyWriteErr(err error) errs.Kind {
	msg := err.Error()
	if strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "SQLITE_FULL") {
		return errs.Quota
	}
	return errs.Internal
}
