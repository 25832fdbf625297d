package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketExportInfo = []byte("export_info")

const (
	boltFileMode    = 0o600
	boltDirMode     = 0o755
	boltOpenTimeout = 2 * time.Second
)

// cachedRecord is the value stored per content key.
type cachedRecord struct {
	Exports  *entity.ExportInfo `json:"exports"`
	StoredAt time.Time          `json:"stored_at"`
}

// BoltCache persists export metadata across runs in a bbolt database.
type BoltCache struct {
	db     *bbolt.DB
	path   string
	logger logging.ApplicationLogger
}

// NewBoltCache opens (or creates) the database at path.
func NewBoltCache(path string) (*BoltCache, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: cache path cannot be empty", domain.ErrInvalidInput)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, boltDirMode); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, boltFileMode, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketExportInfo); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketExportInfo, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltCache{db: db, path: path, logger: slogger.WithComponent("bolt-cache")}, nil
}

// Get returns the stored record or domain.ErrCacheMiss.
// An undecodable value yields domain.ErrCacheCorrupted.
func (c *BoltCache) Get(ctx context.Context, key valueobject.ContentKey) (*entity.ExportInfo, error) {
	var record cachedRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketExportInfo).Get(key.Bytes())
		if data == nil {
			return domain.ErrCacheMiss
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCacheCorrupted, err)
		}
		if record.Exports == nil {
			return fmt.Errorf("%w: record has no exports", domain.ErrCacheCorrupted)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn(ctx, "Failed to read persistent cache entry", slogger.Fields{
				"key":   shortKey(key),
				"error": err.Error(),
			})
		}
		return nil, err
	}

	return record.Exports, nil
}

// Put stores info under key, replacing any earlier value.
func (c *BoltCache) Put(ctx context.Context, key valueobject.ContentKey, info *entity.ExportInfo) error {
	if info == nil {
		return fmt.Errorf("%w: export info cannot be nil", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(cachedRecord{Exports: info, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode cache record: %w", err)
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExportInfo).Put(key.Bytes(), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache record: %w", err)
	}

	c.logger.Debug(ctx, "Cached export info on disk", slogger.Fields{"key": shortKey(key)})
	return nil
}

// Delete removes the entry for key if present.
func (c *BoltCache) Delete(key valueobject.ContentKey) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExportInfo).Delete(key.Bytes())
	})
}

// Len returns the number of stored entries.
func (c *BoltCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketExportInfo).Stats().KeyN
		return nil
	})
	return n, err
}

// Path returns the database file location.
func (c *BoltCache) Path() string {
	return c.path
}

// Close closes the database.
func (c *BoltCache) Close() error {
	return c.db.Close()
}
