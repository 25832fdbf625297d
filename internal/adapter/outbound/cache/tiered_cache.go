package cache

import (
	"context"
	"errors"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
	"pagestatic/internal/port/outbound"
)

// TieredCache reads through a fast cache to a persistent one and writes to both.
// Hits in the persistent tier are promoted to the fast tier.
type TieredCache struct {
	fast       outbound.AnalysisCache
	persistent outbound.AnalysisCache
	logger     logging.ApplicationLogger
}

// NewTieredCache combines fast and persistent tiers.
func NewTieredCache(fast, persistent outbound.AnalysisCache) *TieredCache {
	return &TieredCache{fast: fast, persistent: persistent, logger: slogger.WithComponent("tiered-cache")}
}

// Get implements outbound.AnalysisCache.
func (c *TieredCache) Get(ctx context.Context, key valueobject.ContentKey) (*entity.ExportInfo, error) {
	info, err := c.fast.Get(ctx, key)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}

	info, err = c.persistent.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := c.fast.Put(ctx, key, info); err != nil {
		c.logger.Warn(ctx, "Failed to promote cache entry", slogger.Fields{
			"key":   shortKey(key),
			"error": err.Error(),
		})
	}
	return info, nil
}

// Put implements outbound.AnalysisCache.
func (c *TieredCache) Put(ctx context.Context, key valueobject.ContentKey, info *entity.ExportInfo) error {
	if err := c.fast.Put(ctx, key, info); err != nil {
		return err
	}
	return c.persistent.Put(ctx, key, info)
}

// Close closes both tiers.
func (c *TieredCache) Close() error {
	return errors.Join(c.fast.Close(), c.persistent.Close())
}
