package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS summary_cache (
	key          TEXT PRIMARY KEY,
	payload      TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL,
	accessed_at  INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_summary_cache_expires_at ON summary_cache(expires_at);
`

// SQLiteCache persists entries in a local SQLite database
type SQLiteCache struct {
	db        *sql.DB
	path      string
	duration  time.Duration
	hitCount  atomic.Int64
	missCount atomic.Int64
	now       func() time.Time
}

// NewSQLiteCache opens or creates the database at path
func NewSQLiteCache(ctx context.Context, path string, duration time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteCache{
		db:       db,
		path:     path,
		duration: duration,
		now:      time.Now,
	}, nil
}

// Get retrieves an entry from the database
func (c *SQLiteCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	var (
		payload                          string
		createdAt, expiresAt, accessedAt int64
		accessCount                      int
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT payload, created_at, expires_at, accessed_at, access_count FROM summary_cache WHERE key = ?`, key)
	if err := row.Scan(&payload, &createdAt, &expiresAt, &accessedAt, &accessCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.missCount.Add(1)
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("query cache entry: %w", err)
	}

	now := c.now()
	entry := &CacheEntry{
		Key:         key,
		CreatedAt:   time.Unix(0, createdAt),
		ExpiresAt:   time.Unix(0, expiresAt),
		AccessedAt:  now,
		AccessCount: accessCount + 1,
	}

	if now.After(entry.ExpiresAt) {
		if err := c.Delete(ctx, key); err != nil {
			return nil, err
		}
		c.missCount.Add(1)
		return nil, ErrCacheMiss
	}

	if err := json.Unmarshal([]byte(payload), &entry.Envelope); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE summary_cache SET accessed_at = ?, access_count = access_count + 1 WHERE key = ?`,
		now.UnixNano(), key); err != nil {
		return nil, fmt.Errorf("update access info: %w", err)
	}

	c.hitCount.Add(1)
	return entry, nil
}

// Set stores an entry, replacing any previous value for key
func (c *SQLiteCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	payload, err := json.Marshal(entry.Envelope)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	now := c.now()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO summary_cache (key, payload, created_at, expires_at, accessed_at, access_count)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			accessed_at = excluded.accessed_at,
			access_count = 0`,
		key, string(payload), now.UnixNano(), now.Add(c.duration).UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM summary_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear removes all entries and resets the counters
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM summary_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.hitCount.Store(0)
	c.missCount.Store(0)
	return nil
}

// PurgeExpired removes expired rows
func (c *SQLiteCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM summary_cache WHERE expires_at < ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// GetStats returns cache statistics
func (c *SQLiteCache) GetStats(ctx context.Context) (*Stats, error) {
	now := c.now().UnixNano()

	var (
		total, expired int
		size           sql.NullInt64
		oldest         sql.NullInt64
		avgCreated     sql.NullFloat64
	)
	row := c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at < ? THEN 1 ELSE 0 END), 0),
			SUM(LENGTH(payload)),
			MIN(created_at),
			AVG(created_at)
		FROM summary_cache`, now)
	if err := row.Scan(&total, &expired, &size, &oldest, &avgCreated); err != nil {
		return nil, fmt.Errorf("query cache stats: %w", err)
	}

	hits, misses := c.hitCount.Load(), c.missCount.Load()
	stats := &Stats{
		Backend:        "sqlite",
		TotalEntries:   total,
		HitCount:       hits,
		MissCount:      misses,
		HitRate:        hitRate(hits, misses),
		SizeBytes:      size.Int64,
		ExpiredEntries: expired,
	}
	if oldest.Valid {
		stats.OldestEntry = time.Unix(0, oldest.Int64)
	}
	if avgCreated.Valid && total > 0 {
		stats.AverageAge = time.Duration(float64(now) - avgCreated.Float64)
	}
	return stats, nil
}

// Close closes the underlying database connection
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
