package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/summary"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// PurgeExpired removes expired entries and reports how many were removed
	PurgeExpired(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// CacheEntry represents a cached summary envelope
type CacheEntry struct {
	Key         string           `json:"key"`
	Envelope    summary.Envelope `json:"envelope"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	AccessedAt  time.Time        `json:"accessed_at"`
	AccessCount int              `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Backend        string        `json:"backend"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	SizeBytes      int64         `json:"size_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// Common cache errors
var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = errors.New("cache disabled")
)

// Manager handles cache operations for summary envelopes. A Manager without
// a backend is valid and behaves as an always-missing cache.
type Manager struct {
	cache Cache
}

// NewManager creates a cache manager for the configured backend
func NewManager(ctx context.Context, cfg *config.Config) (*Manager, error) {
	ttl := cfg.CacheTTL()

	switch cfg.CacheType {
	case config.CacheNone, "":
		return &Manager{}, nil
	case config.CacheMemory:
		return NewManagerWithCache(NewMemoryCache(ttl)), nil
	case config.CacheSQLite:
		c, err := NewSQLiteCache(ctx, cfg.CacheSQLitePath, ttl)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite cache: %w", err)
		}
		return NewManagerWithCache(c), nil
	case config.CacheCloudStorage:
		c, err := NewCloudStorageCache(ctx, cfg.CacheBucket, ttl)
		if err != nil {
			return nil, fmt.Errorf("creating cloud storage cache: %w", err)
		}
		return NewManagerWithCache(c), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// NewManagerWithCache wraps an existing backend
func NewManagerWithCache(c Cache) *Manager {
	return &Manager{cache: c}
}

// Enabled reports whether a backend is configured
func (m *Manager) Enabled() bool {
	return m != nil && m.cache != nil
}

// GetEnvelope returns the cached envelope for a transcript
func (m *Manager) GetEnvelope(ctx context.Context, transcript string) (*summary.Envelope, error) {
	if !m.Enabled() {
		return nil, ErrCacheMiss
	}
	entry, err := m.cache.Get(ctx, GenerateKey(transcript))
	if err != nil {
		return nil, err
	}
	env := entry.Envelope
	return &env, nil
}

// SetEnvelope caches env for a transcript
func (m *Manager) SetEnvelope(ctx context.Context, transcript string, env *summary.Envelope) error {
	if !m.Enabled() || env == nil {
		return nil
	}
	return m.cache.Set(ctx, GenerateKey(transcript), &CacheEntry{Envelope: *env})
}

// PurgeExpired removes expired entries from the backend
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	if !m.Enabled() {
		return 0, nil
	}
	return m.cache.PurgeExpired(ctx)
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	if !m.Enabled() {
		return nil, ErrCacheDisabled
	}
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	if !m.Enabled() {
		return ErrCacheDisabled
	}
	return m.cache.Clear(ctx)
}

// Close closes the backend
func (m *Manager) Close() error {
	if !m.Enabled() {
		return nil
	}
	return m.cache.Close()
}

// GenerateKey generates a cache key for a transcript
func GenerateKey(transcript string) string {
	hash := md5.Sum([]byte(transcript))
	return fmt.Sprintf("summary:%x", hash)
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
