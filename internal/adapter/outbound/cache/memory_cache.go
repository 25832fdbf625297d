package cache

import (
	"context"
	"fmt"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCacheSize is used when a non-positive size is configured.
const DefaultMemoryCacheSize = 1024

// MemoryCache is a thread-safe LRU cache of export metadata keyed by content.
type MemoryCache struct {
	entries *lru.Cache[string, *entity.ExportInfo]
	mu      sync.Mutex
	stats   CacheStatistics
	logger  logging.ApplicationLogger
}

// CacheStatistics tracks cache performance metrics.
type CacheStatistics struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Entries     int
	HitRate     float64
	LastUpdated time.Time
}

// NewMemoryCache creates a new cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) (*MemoryCache, error) {
	if maxSize <= 0 {
		maxSize = DefaultMemoryCacheSize
	}

	c := &MemoryCache{
		stats:  CacheStatistics{LastUpdated: time.Now()},
		logger: slogger.WithComponent("memory-cache"),
	}
	entries, err := lru.NewWithEvict(maxSize, func(string, *entity.ExportInfo) {
		c.mu.Lock()
		c.stats.Evictions++
		c.mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c.entries = entries

	return c, nil
}

// Get returns a copy of the cached record or domain.ErrCacheMiss.
func (c *MemoryCache) Get(ctx context.Context, key valueobject.ContentKey) (*entity.ExportInfo, error) {
	info, ok := c.entries.Get(key.String())

	c.mu.Lock()
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.updateHitRate()
	c.mu.Unlock()

	if !ok {
		c.logger.Debug(ctx, "Memory cache miss", slogger.Fields{"key": shortKey(key)})
		return nil, domain.ErrCacheMiss
	}

	return info.Clone(), nil
}

// Put stores a copy of info.
func (c *MemoryCache) Put(ctx context.Context, key valueobject.ContentKey, info *entity.ExportInfo) error {
	if info == nil {
		return fmt.Errorf("%w: export info cannot be nil", domain.ErrInvalidInput)
	}

	c.entries.Add(key.String(), info.Clone())

	c.logger.Debug(ctx, "Cached export info in memory", slogger.Fields{
		"key":        shortKey(key),
		"cache_size": c.entries.Len(),
	})
	return nil
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// GetStatistics returns current cache statistics.
func (c *MemoryCache) GetStatistics() CacheStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = c.entries.Len()
	return stats
}

// updateHitRate recalculates the cache hit rate. Callers hold c.mu.
func (c *MemoryCache) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
	c.stats.LastUpdated = time.Now()
}

func shortKey(key valueobject.ContentKey) string {
	s := key.String()
	const keep = 24
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "..."
}
