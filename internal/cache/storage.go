package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const expiresAtMetadataKey = "expires-at"

// CloudStorageCache implements cache using Google Cloud Storage with JSON format
type CloudStorageCache struct {
	client     *storage.Client
	bucketName string
	duration   time.Duration
	prefix     string
	hitCount   atomic.Int64
	missCount  atomic.Int64
}

// NewCloudStorageCache creates a new Cloud Storage cache
func NewCloudStorageCache(ctx context.Context, bucketName string, duration time.Duration) (*CloudStorageCache, error) {
	if bucketName == "" {
		return nil, errors.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &CloudStorageCache{
		client:     client,
		bucketName: bucketName,
		duration:   duration,
		prefix:     "summaries/",
	}, nil
}

func (c *CloudStorageCache) objectName(key string) string {
	return c.prefix + key + ".json"
}

// Get retrieves an entry from Cloud Storage
func (c *CloudStorageCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	obj := c.client.Bucket(c.bucketName).Object(c.objectName(key))

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			c.missCount.Add(1)
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cache entry: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		if err := c.Delete(ctx, key); err != nil {
			return nil, err
		}
		c.missCount.Add(1)
		return nil, ErrCacheMiss
	}

	// access info is not written back; objects are immutable until expiry
	entry.AccessedAt = time.Now()
	entry.AccessCount++
	c.hitCount.Add(1)

	return &entry, nil
}

// Set stores an entry in Cloud Storage
func (c *CloudStorageCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now
	stored.AccessCount = 0

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	writer := c.client.Bucket(c.bucketName).Object(c.objectName(key)).NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.Metadata = map[string]string{
		expiresAtMetadataKey: strconv.FormatInt(stored.ExpiresAt.Unix(), 10),
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}

	return nil
}

// Delete removes an entry from Cloud Storage
func (c *CloudStorageCache) Delete(ctx context.Context, key string) error {
	err := c.client.Bucket(c.bucketName).Object(c.objectName(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Clear removes all entries from Cloud Storage with the cache prefix
func (c *CloudStorageCache) Clear(ctx context.Context) error {
	err := c.eachObject(ctx, func(bucket *storage.BucketHandle, attrs *storage.ObjectAttrs) error {
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("deleting object %s: %w", attrs.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.hitCount.Store(0)
	c.missCount.Store(0)
	return nil
}

// PurgeExpired deletes objects whose expiry metadata is in the past
func (c *CloudStorageCache) PurgeExpired(ctx context.Context) (int, error) {
	now := time.Now()
	removed := 0

	err := c.eachObject(ctx, func(bucket *storage.BucketHandle, attrs *storage.ObjectAttrs) error {
		if !objectExpired(attrs, now) {
			return nil
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("deleting object %s: %w", attrs.Name, err)
		}
		removed++
		return nil
	})
	return removed, err
}

// GetStats returns cache statistics for Cloud Storage
func (c *CloudStorageCache) GetStats(ctx context.Context) (*Stats, error) {
	hits, misses := c.hitCount.Load(), c.missCount.Load()
	stats := &Stats{
		Backend:   "cloud-storage",
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate(hits, misses),
	}

	var totalAge time.Duration
	now := time.Now()

	err := c.eachObject(ctx, func(_ *storage.BucketHandle, attrs *storage.ObjectAttrs) error {
		stats.TotalEntries++
		stats.SizeBytes += attrs.Size

		if stats.OldestEntry.IsZero() || attrs.Created.Before(stats.OldestEntry) {
			stats.OldestEntry = attrs.Created
		}
		totalAge += now.Sub(attrs.Created)

		if objectExpired(attrs, now) {
			stats.ExpiredEntries++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalEntries > 0 {
		stats.AverageAge = totalAge / time.Duration(stats.TotalEntries)
	}
	return stats, nil
}

// Close closes the Cloud Storage client
func (c *CloudStorageCache) Close() error {
	return c.client.Close()
}

func (c *CloudStorageCache) eachObject(ctx context.Context, fn func(*storage.BucketHandle, *storage.ObjectAttrs) error) error {
	bucket := c.client.Bucket(c.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: c.prefix})

	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}
		if err := fn(bucket, attrs); err != nil {
			return err
		}
	}
}

// objectExpired reads the expiry stamp written by Set. Objects without one
// are left alone.
func objectExpired(attrs *storage.ObjectAttrs, now time.Time) bool {
	raw, ok := attrs.Metadata[expiresAtMetadataKey]
	if !ok {
		return false
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return now.After(time.Unix(unix, 0))
}
