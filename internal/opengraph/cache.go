package opengraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	cacheKeyPrefix = "og:"
	gcInterval     = 10 * time.Minute
)

// BadgerCache is a Cache backed by Badger. Entries expire after the TTL
// given to OpenCache.
type BadgerCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// OpenCache opens (or creates) a cache in dir. An empty dir keeps the
// cache in memory.
func OpenCache(dir string, ttl time.Duration, logger *slog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	c := &BadgerCache{
		db:     db,
		ttl:    ttl,
		logger: logger,
		done:   make(chan struct{}),
	}
	if dir != "" {
		go c.gcLoop()
	}
	return c, nil
}

// Get returns the cached metadata for key, if present and not expired.
func (c *BadgerCache) Get(_ context.Context, key string) (Metadata, bool) {
	var md Metadata
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &md)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("metadata cache read failed", "url", key, "error", err)
		}
		return Metadata{}, false
	}
	return md, true
}

// Set stores md under key. Failures are logged; the cache is advisory.
func (c *BadgerCache) Set(_ context.Context, key string, md Metadata) {
	data, err := json.Marshal(md)
	if err != nil {
		c.logger.Warn("metadata cache encode failed", "url", key, "error", err)
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(cacheKeyPrefix+key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn("metadata cache write failed", "url", key, "error", err)
	}
}

// Ping reports whether the cache is usable.
func (c *BadgerCache) Ping() error {
	if c.db.IsClosed() {
		return errors.New("metadata cache is closed")
	}
	return nil
}

// Close stops background GC and closes the database.
func (c *BadgerCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.db.Close()
	})
	return err
}

func (c *BadgerCache) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// One rewrite per tick; ErrNoRewrite just means nothing to reclaim.
			if err := c.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				c.logger.Debug("metadata cache gc", "error", err)
			}
		}
	}
}
